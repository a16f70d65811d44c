package sexpr

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/gitrdm/abductio/pkg/term"
)

// PredicatePair is an unordered pair of predicates declared mutually
// exclusive by a (xor a b) form.
type PredicatePair struct {
	A, B term.PredicateID
}

// Observation is one parsed (O ...) form: an observed conjunction, its
// optional requirement atoms, and its human-readable label.
type Observation struct {
	Atoms        []term.Atom
	Requirements []term.Atom
	Name         string
}

// Document is everything a parsed tree of (O ...)/(B ...)/(include ...)
// forms resolves to: the predicates implied by every atom encountered,
// the rules declared by (=> lhs rhs) forms, the exclusions declared by
// (xor a b) forms, and the observations declared by (O ...) forms,
// resolved against original_source's block/group handling in kb.cpp's
// reader loop.
type Document struct {
	Predicates map[term.PredicateID]term.Predicate
	Flags      map[term.PredicateID]term.PropertyFlag
	Rules      []term.Rule
	Exclusions []PredicatePair
	Observations []Observation
}

// Loader turns parsed forms into a Document, registering every predicate
// it encounters by name and arity and interning every term in the given
// interner. One Loader is scoped to one compile or query session.
type Loader struct {
	in    *term.Interner
	byKey map[string]term.PredicateID // "name/arity" -> id
	next  term.PredicateID
	doc   Document

	// Strict aborts Load on the first malformed top-level form. The
	// default, false, instead skips the offending form and accumulates
	// it into the returned
	// *multierror.Error, so the caller still gets every well-formed
	// form's contribution to the Document.
	Strict bool
}

// NewLoader returns a Loader that interns terms via in and assigns
// predicate ids starting just after the two reserved ones.
func NewLoader(in *term.Interner) *Loader {
	return &Loader{
		in:    in,
		byKey: make(map[string]term.PredicateID),
		next:  term.EqualityPredicate + 1,
		doc: Document{
			Predicates: make(map[term.PredicateID]term.Predicate),
			Flags:      make(map[term.PredicateID]term.PropertyFlag),
		},
	}
}

// SeedFromLibrary primes l's name/arity registry from an already-compiled
// predicate library, so atoms loaded afterward (e.g. an observation file
// parsed against a query-mode KB) resolve to the library's existing
// predicate ids instead of minting fresh ones that would not match the
// compiled rule/feature indices.
func (l *Loader) SeedFromLibrary(lib *term.Library) {
	for i, p := range lib.All() {
		if !p.Good() {
			continue
		}
		id := term.PredicateID(i)
		key := fmt.Sprintf("%s/%d", p.Name, p.Arity)
		l.byKey[key] = id
		l.doc.Predicates[id] = p
		if id >= l.next {
			l.next = id + 1
		}
	}
}

// Load processes every top-level form (in order) into l's running
// Document and returns it. Forms must already have (include ...) forms
// resolved, e.g. via ReadFileTree. In the default (non-Strict) mode, a
// malformed form is skipped and its error recorded rather than aborting
// the whole load; the returned error is non-nil whenever at least one
// form was skipped, even though doc still carries every well-formed
// form's contribution.
func (l *Loader) Load(forms []*Node) (*Document, error) {
	var errs *multierror.Error
	for _, f := range forms {
		if err := l.loadForm(f); err != nil {
			if l.Strict {
				return nil, err
			}
			errs = multierror.Append(errs, err)
		}
	}
	return &l.doc, errs.ErrorOrNil()
}

func (l *Loader) loadForm(f *Node) error {
	switch f.Head() {
	case "O":
		obs, err := l.loadObservation(f)
		if err != nil {
			return err
		}
		l.doc.Observations = append(l.doc.Observations, obs)
	case "B":
		return l.loadBlock(f)
	default:
		return &SyntaxError{Line: f.Line, Msg: fmt.Sprintf("unknown top-level form %q", f.Head())}
	}
	return nil
}

func (l *Loader) loadObservation(f *Node) (Observation, error) {
	var obs Observation
	for _, child := range f.Args() {
		switch child.Head() {
		case "^":
			atoms, err := l.loadAtoms(child.Args())
			if err != nil {
				return obs, err
			}
			obs.Atoms = atoms
		case "req":
			atoms, err := l.loadAtoms(child.Args())
			if err != nil {
				return obs, err
			}
			obs.Requirements = atoms
		case "name":
			obs.Name = nameOf(child)
		default:
			// A bare atom directly under (O ...) with no (^ ...) wrapper.
			a, err := l.loadAtom(child)
			if err != nil {
				return obs, err
			}
			obs.Atoms = append(obs.Atoms, a)
		}
	}
	return obs, nil
}

func (l *Loader) loadBlock(f *Node) error {
	group := ruleName(f)
	ruleIndex := 0
	for _, child := range f.Args() {
		switch child.Head() {
		case "=>":
			args := child.Args()
			if len(args) != 2 {
				return &SyntaxError{Line: child.Line, Msg: "(=> lhs rhs) takes exactly two arguments"}
			}
			lhs, err := l.loadConjunction(args[0])
			if err != nil {
				return err
			}
			rhs, err := l.loadConjunction(args[1])
			if err != nil {
				return err
			}
			l.doc.Rules = append(l.doc.Rules, term.Rule{
				Name: blockRuleName(group, ruleIndex),
				LHS:  lhs,
				RHS:  rhs,
			})
			ruleIndex++
		case "xor":
			args := child.Args()
			if len(args) != 2 {
				return &SyntaxError{Line: child.Line, Msg: "(xor a b) takes exactly two arguments"}
			}
			a, err := l.loadAtom(args[0])
			if err != nil {
				return err
			}
			b, err := l.loadAtom(args[1])
			if err != nil {
				return err
			}
			l.doc.Exclusions = append(l.doc.Exclusions, PredicatePair{A: a.Predicate, B: b.Predicate})
		case "define":
			if err := l.loadDefine(child); err != nil {
				return err
			}
		case "name":
			// group name; carried via ruleName for rules declared in this
			// block, nothing further to record.
		default:
			return &SyntaxError{Line: child.Line, Msg: fmt.Sprintf("unknown block form %q", child.Head())}
		}
	}
	return nil
}

var propertyKeywords = map[string]term.PropertyFlag{
	"irreflexive": term.FlagIrreflexive,
	"symmetric":   term.FlagSymmetric,
	"asymmetric":  term.FlagAsymmetric,
	"transitive":  term.FlagTransitive,
	"right-unique": term.FlagRightUnique,
}

// loadDefine processes (define (pred args...) prop...), registering pred
// at the declared arity with any named relational property flags.
func (l *Loader) loadDefine(f *Node) error {
	args := f.Args()
	if len(args) == 0 || args[0].Kind != KindList || len(args[0].Children) == 0 {
		return &SyntaxError{Line: f.Line, Msg: "define: first argument must be (pred args...)"}
	}
	sig := args[0]
	name := sig.Children[0].Text
	arity := len(sig.Children) - 1
	pid := l.register(name, arity)

	var flags term.PropertyFlag
	for _, prop := range args[1:] {
		if prop.Kind != KindAtom {
			continue
		}
		if fl, ok := propertyKeywords[prop.Text]; ok {
			flags |= fl
		}
	}
	if flags != 0 {
		l.doc.Flags[pid] |= flags
	}
	return nil
}

func (l *Loader) loadConjunction(n *Node) (term.Conjunction, error) {
	var atoms []*Node
	if n.IsFunctor("^") {
		atoms = n.Args()
	} else {
		atoms = []*Node{n}
	}
	as, err := l.loadAtoms(atoms)
	if err != nil {
		return term.Conjunction{}, err
	}
	return term.Conjunction{Atoms: as}, nil
}

func (l *Loader) loadAtoms(nodes []*Node) ([]term.Atom, error) {
	out := make([]term.Atom, 0, len(nodes))
	for _, n := range nodes {
		a, err := l.loadAtom(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (l *Loader) loadAtom(n *Node) (term.Atom, error) {
	if n.Kind != KindList || len(n.Children) == 0 {
		return term.Atom{}, &SyntaxError{Line: n.Line, Msg: "expected an atom (pred t1 t2 ...)"}
	}
	head := n.Children[0]
	if head.Kind != KindAtom {
		return term.Atom{}, &SyntaxError{Line: n.Line, Msg: "atom head must be a bareword"}
	}
	name := head.Text
	argNodes := n.Children[1:]

	switch name {
	case "=", "!=":
		if len(argNodes) != 2 {
			return term.Atom{}, &SyntaxError{Line: n.Line, Msg: "(= t1 t2) takes exactly two terms"}
		}
		t1 := l.in.Intern(argNodes[0].Text)
		t2 := l.in.Intern(argNodes[1].Text)
		return term.NewEquality(t1, t2, name == "="), nil
	}

	truth := true
	if len(name) > 0 && name[0] == '!' {
		truth = false
		name = name[1:]
	}

	terms := make([]term.ID, len(argNodes))
	for i, t := range argNodes {
		terms[i] = l.in.Intern(t.Text)
	}
	pid := l.register(name, len(terms))
	return term.NewAtom(pid, terms, truth), nil
}

// register returns the predicate id for (name, arity), registering it on
// first use. A name seen at two different arities registers two distinct
// predicates, one per arity; this is not an error.
func (l *Loader) register(name string, arity int) term.PredicateID {
	key := fmt.Sprintf("%s/%d", name, arity)
	if id, ok := l.byKey[key]; ok {
		return id
	}
	id := l.next
	l.next++
	l.byKey[key] = id
	l.doc.Predicates[id] = term.Predicate{Name: name, Arity: arity}
	return id
}

func nameOf(n *Node) string {
	for _, c := range n.Args() {
		if c.Kind == KindString {
			return c.Text
		}
	}
	return ""
}

// blockRuleName builds a rule's stored name from its enclosing block's
// group label and its position within the block: "group#rN", or just
// "rN" for an unlabeled block. Every rule sharing a block's group label
// becomes mutually exclusive with its block-mates (term.Rule.GroupTags).
func blockRuleName(group string, index int) string {
	if group == "" {
		return fmt.Sprintf("r%d", index)
	}
	return fmt.Sprintf("%s#r%d", group, index)
}

func ruleName(block *Node) string {
	for _, c := range block.Args() {
		if c.Head() == "name" {
			return nameOf(c)
		}
	}
	return ""
}
