// Package term implements the predicate and term model: interned term
// identifiers, predicates, atoms, conjunctions, and rules.
package term

import (
	"strings"
	"sync"
)

// ID is an interned 32-bit term identifier.
type ID uint32

// unknownPrefix marks a freshly generated placeholder term, per spec.
const unknownPrefix = "_u"

// Kind classifies a term by its printable form.
type Kind uint8

const (
	// KindVariable is an ordinary logic variable.
	KindVariable Kind = iota
	// KindConstant is a term whose printable form starts with an uppercase letter.
	KindConstant
	// KindUnknown is a freshly generated placeholder (prefix "_u").
	KindUnknown
)

// Interner assigns dense 32-bit identifiers to term strings. It mirrors the
// original's process-global string_hash_t table, but is an explicit,
// caller-owned object rather than a singleton (see DESIGN.md).
type Interner struct {
	mu          sync.Mutex
	byString    map[string]ID
	strs        []string
	kinds       []Kind
	unknownNext uint32
}

// NewInterner returns an empty term interner.
func NewInterner() *Interner {
	return &Interner{
		byString: make(map[string]ID),
	}
}

// Intern returns the ID for s, assigning a new one if s has not been seen.
func (in *Interner) Intern(s string) ID {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byString[s]; ok {
		return id
	}
	id := ID(len(in.strs))
	in.byString[s] = id
	in.strs = append(in.strs, s)
	in.kinds = append(in.kinds, classify(s))
	return id
}

// FreshUnknown allocates a new placeholder term of the form "_uN" and
// interns it, returning its ID. The counter and the string table share one
// lock so the two never drift out of step.
func (in *Interner) FreshUnknown() ID {
	in.mu.Lock()
	n := in.unknownNext
	in.unknownNext++
	s := unknownName(n)
	id := ID(len(in.strs))
	in.byString[s] = id
	in.strs = append(in.strs, s)
	in.kinds = append(in.kinds, KindUnknown)
	in.mu.Unlock()
	return id
}

func unknownName(n uint32) string {
	// "_u" + base-10 counter, matching the original's reserved prefix.
	buf := make([]byte, 0, 8)
	buf = append(buf, unknownPrefix...)
	buf = appendUint(buf, n)
	return string(buf)
}

func appendUint(buf []byte, n uint32) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	// reverse the digits we just appended
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// String returns the printable form of id. Panics if id was never interned
// by this Interner (an invariant violation, not a recoverable input error).
func (in *Interner) String(id ID) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.strs[id]
}

// Kind returns the classification of id.
func (in *Interner) Kind(id ID) Kind {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.kinds[id]
}

func (in *Interner) IsConstant(id ID) bool { return in.Kind(id) == KindConstant }
func (in *Interner) IsUnknown(id ID) bool  { return in.Kind(id) == KindUnknown }
func (in *Interner) IsVariable(id ID) bool { return in.Kind(id) == KindVariable }

func classify(s string) Kind {
	if strings.HasPrefix(s, unknownPrefix) {
		return KindUnknown
	}
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		return KindConstant
	}
	return KindVariable
}

// Unifiable reports whether a and b may be unified: true unless they are
// two distinct constants.
func (in *Interner) Unifiable(a, b ID) bool {
	if a == b {
		return true
	}
	return !(in.IsConstant(a) && in.IsConstant(b))
}
