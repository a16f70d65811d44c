package term

import "strings"

// RuleID is a dense id assigned to a rule at KB compile time.
type RuleID int64

// Rule is (name, lhs, rhs) representing lhs => rhs. Rule names may carry
// colon-separated group tags used to mark rules mutually exclusive at
// chaining time, e.g. "g#r1" / "g#r2" share group tag "g".
type Rule struct {
	ID   RuleID
	Name string
	LHS  Conjunction
	RHS  Conjunction
}

// GroupTags returns the colon-separated group tags embedded in the rule
// name, e.g. "g1:g2#r1" yields ["g1", "g2"]. A name with no "#" separator
// carries no group tags.
func (r Rule) GroupTags() []string {
	idx := strings.IndexByte(r.Name, '#')
	if idx < 0 {
		return nil
	}
	prefix := r.Name[:idx]
	if prefix == "" {
		return nil
	}
	return strings.Split(prefix, ":")
}

// SharesGroup reports whether r and other declare at least one common
// group tag.
func (r Rule) SharesGroup(other Rule) bool {
	tags := r.GroupTags()
	if len(tags) == 0 {
		return false
	}
	otherTags := make(map[string]struct{}, len(other.GroupTags()))
	for _, t := range other.GroupTags() {
		otherTags[t] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := otherTags[t]; ok {
			return true
		}
	}
	return false
}
