package proof

import (
	"strconv"
	"strings"

	"github.com/gitrdm/abductio/pkg/term"
)

// AtomString renders a as S-expression text using g's predicate library
// and interner, e.g. "(bird Tweety)" or "(!flies Tweety)". Used for the
// human-readable body of <literal>/<explanation>/<unification> elements.
func (g *Graph) AtomString(a term.Atom) string {
	var b strings.Builder
	b.WriteByte('(')
	if a.IsEquality() {
		if a.Truth {
			b.WriteString("= ")
		} else {
			b.WriteString("!= ")
		}
	} else {
		if !a.Truth {
			b.WriteByte('!')
		}
		if p, ok := g.KB.Predicates().Get(a.Predicate); ok {
			b.WriteString(p.Name)
		} else {
			b.WriteString("?pred" + strconv.Itoa(int(a.Predicate)))
		}
		b.WriteByte(' ')
	}
	for i, t := range a.Terms {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(g.Interner.String(t))
	}
	b.WriteByte(')')
	return b.String()
}

// NodeString renders the node's atom text.
func (g *Graph) NodeString(id NodeID) string { return g.AtomString(g.nodes[id].Atom) }

// hypernodeAtoms renders a hypernode's member atoms joined by " ^ ".
func (g *Graph) hypernodeAtoms(id HypernodeID) string {
	if id == InvalidHypernode {
		return "none"
	}
	members := g.hypernodes[id].Members
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = g.NodeString(m)
	}
	return strings.Join(parts, " ^ ")
}

// EdgeString renders e as "tail-atoms => head-atoms", used for the body
// text of <explanation> and <unification> elements.
func (g *Graph) EdgeString(id EdgeID) string {
	e := g.edges[id]
	return g.hypernodeAtoms(e.Tail) + " => " + g.hypernodeAtoms(e.Head)
}

// HypernodeString renders a hypernode as its comma-joined member ids.
func (g *Graph) HypernodeString(id HypernodeID) string {
	if id == InvalidHypernode {
		return ""
	}
	members := g.hypernodes[id].Members
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(int(m))
	}
	return strings.Join(parts, ",")
}
