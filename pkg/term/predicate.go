package term

import (
	"fmt"
	"sync"
)

// PredicateID is a dense, process-assigned predicate identifier.
type PredicateID uint32

const (
	// InvalidPredicate is never attached to a valid atom.
	InvalidPredicate PredicateID = 0
	// EqualityPredicate is the reserved id for "=/2".
	EqualityPredicate PredicateID = 1
)

// Predicate is an (identifier, arity) pair.
type Predicate struct {
	Name  string
	Arity int
}

// Good reports whether p is eligible for registration: non-empty name and
// arity >= 1.
func (p Predicate) Good() bool { return p.Name != "" && p.Arity >= 1 }

func (p Predicate) String() string { return fmt.Sprintf("%s/%d", p.Name, p.Arity) }

// Unifiability classifies how freely an argument slot of a predicate may be
// unified, derived from predicate properties.
type Unifiability uint8

const (
	UnifyUnlimited Unifiability = iota
	UnifyWeaklyLimited
	UnifyStronglyLimited
)

// PropertyFlag is one bit of a predicate's declared relational properties.
type PropertyFlag uint8

const (
	FlagIrreflexive PropertyFlag = 1 << iota
	FlagSymmetric
	FlagAsymmetric
	FlagTransitive
	FlagRightUnique
)

// Property carries the optional per-predicate relational flags and their
// derived per-argument unifiability classes.
type Property struct {
	PredicateID  PredicateID
	Flags        PropertyFlag
	Unifiability []Unifiability // one entry per argument slot
}

func (p Property) Is(f PropertyFlag) bool { return p.Flags&f != 0 }

// deriveUnifiability computes the per-slot unifiability class for a
// predicate of the given arity and flags, following the original's
// functional_predicate_configuration_t::assign_unifiability: a right-unique
// (functional) predicate strongly limits its last ("dependent") argument
// and weakly limits the rest; all other predicates are unlimited.
func deriveUnifiability(arity int, flags PropertyFlag) []Unifiability {
	u := make([]Unifiability, arity)
	for i := range u {
		u[i] = UnifyUnlimited
	}
	if flags&FlagRightUnique != 0 && arity >= 2 {
		for i := 0; i < arity-1; i++ {
			u[i] = UnifyWeaklyLimited
		}
		u[arity-1] = UnifyStronglyLimited
	}
	return u
}

// NewProperty builds a Property for pid with the given arity and flags,
// deriving the per-slot unifiability classes.
func NewProperty(pid PredicateID, arity int, flags PropertyFlag) Property {
	return Property{
		PredicateID:  pid,
		Flags:        flags,
		Unifiability: deriveUnifiability(arity, flags),
	}
}

// Library is the process-wide predicate registry. Id 0 is reserved
// INVALID, id 1 is reserved for equality (=/2). Unlike the original's
// singleton, this is an explicit object the driver owns and threads
// through the KB and proof-graph builder (see DESIGN.md).
type Library struct {
	mu         sync.RWMutex
	byID       []Predicate
	byName     map[string]PredicateID
	properties map[PredicateID]Property
}

// NewLibrary returns a Library pre-seeded with the two reserved ids.
func NewLibrary() *Library {
	l := &Library{
		byID:       make([]Predicate, 2),
		byName:     make(map[string]PredicateID),
		properties: make(map[PredicateID]Property),
	}
	l.byID[InvalidPredicate] = Predicate{Name: "", Arity: 0}
	l.byID[EqualityPredicate] = Predicate{Name: "=", Arity: 2}
	l.byName[key("=", 2)] = EqualityPredicate
	return l
}

func key(name string, arity int) string { return fmt.Sprintf("%s/%d", name, arity) }

// Add registers p if not already present and returns its id. Idempotent:
// calling Add twice with the same predicate returns the same id and does
// not grow the library. Invalid predicates are rejected.
func (l *Library) Add(p Predicate) (PredicateID, bool) {
	if !p.Good() {
		return InvalidPredicate, false
	}
	k := key(p.Name, p.Arity)

	l.mu.RLock()
	if id, ok := l.byName[k]; ok {
		l.mu.RUnlock()
		return id, true
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.byName[k]; ok {
		return id, true
	}
	id := PredicateID(len(l.byID))
	l.byID = append(l.byID, p)
	l.byName[k] = id
	return id, true
}

// Lookup returns the id of (name, arity) if registered.
func (l *Library) Lookup(name string, arity int) (PredicateID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byName[key(name, arity)]
	return id, ok
}

// Get returns the predicate registered under id.
func (l *Library) Get(id PredicateID) (Predicate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if int(id) >= len(l.byID) {
		return Predicate{}, false
	}
	return l.byID[id], true
}

// Len returns the number of registered predicates, including the two
// reserved ids.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// All returns a snapshot of every registered predicate in id order.
func (l *Library) All() []Predicate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Predicate, len(l.byID))
	copy(out, l.byID)
	return out
}

// AddProperty overwrites the stored property for pid.
func (l *Library) AddProperty(p Property) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.properties[p.PredicateID] = p
}

// Property returns the stored property for pid, if any.
func (l *Library) Property(pid PredicateID) (Property, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.properties[pid]
	return p, ok
}
