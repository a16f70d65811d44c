package kb

import (
	"bufio"
	"os"

	"github.com/gitrdm/abductio/pkg/term"
)

// groupIndex maps a rule-group-name to the set of rule ids sharing it,
// loaded fully into memory.
type groupIndex struct {
	byName map[string]map[term.RuleID]struct{}
}

func newGroupIndex() *groupIndex {
	return &groupIndex{byName: make(map[string]map[term.RuleID]struct{})}
}

func (g *groupIndex) record(rule term.Rule) {
	for _, tag := range rule.GroupTags() {
		set, ok := g.byName[tag]
		if !ok {
			set = make(map[term.RuleID]struct{})
			g.byName[tag] = set
		}
		set[rule.ID] = struct{}{}
	}
}

// RuleIDsInGroup returns the rule ids sharing group tag name.
func (g *groupIndex) RuleIDsInGroup(name string) []term.RuleID {
	set := g.byName[name]
	out := make([]term.RuleID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// GroupsOf returns every group tag containing ruleID.
func (g *groupIndex) GroupsOf(ruleID term.RuleID) []string {
	var out []string
	for name, set := range g.byName {
		if _, ok := set[ruleID]; ok {
			out = append(out, name)
		}
	}
	return out
}

func writeGroupIndex(path string, g *groupIndex) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if err := writeU64(w, uint64(len(g.byName))); err != nil {
		return err
	}
	for name, set := range g.byName {
		if err := writeString16(w, name); err != nil {
			return err
		}
		if err := writeU64(w, uint64(len(set))); err != nil {
			return err
		}
		for id := range set {
			if err := writeU64(w, uint64(id)); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func loadGroupIndex(path string) (*groupIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	g := newGroupIndex()
	n, err := readU64(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		name, err := readString16(r)
		if err != nil {
			return nil, err
		}
		count, err := readU64(r)
		if err != nil {
			return nil, err
		}
		set := make(map[term.RuleID]struct{}, count)
		for j := uint64(0); j < count; j++ {
			id, err := readU64(r)
			if err != nil {
				return nil, err
			}
			set[term.RuleID(id)] = struct{}{}
		}
		g.byName[name] = set
	}
	return g, nil
}
