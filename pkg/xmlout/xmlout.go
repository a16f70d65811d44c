// Package xmlout renders a solved proof graph as the <proofgraph> XML
// output document, grounded on
// original_source/src/ilp_problem.cpp's print_solution/
// _print_*_in_solution family. No example repo in the retrieval pack
// emits XML, so this writer assembles elements by hand with fmt.Fprintf,
// matching the original's hand-assembled-ostream style rather than
// introducing a generic marshaler: the document's attribute order and
// element shape are fixed by spec, not derived from Go struct layout.
package xmlout

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gitrdm/abductio/pkg/proof"
	"github.com/gitrdm/abductio/pkg/solve"
)

// Timing carries the three phase durations plus the overall wall time:
// enumeration, ILP encoding, and solving each get their own budget.
type Timing struct {
	LHS, ILP, Sol, All time.Duration
}

// Timeout carries the three phases' individual timeout flags; All is
// computed as their disjunction plus the solver's own reported timeout.
type Timeout struct {
	LHS, ILP, Sol bool
}

func (t Timeout) all(solverTimedOut bool) bool {
	return t.LHS || t.ILP || t.Sol || solverTimedOut
}

// Write renders one <proofgraph> document for sol (the first/best
// solution from a Solver run against g) to w. runID tags the document
// with the driver's per-query identifier, so repeated runs against the
// same KB are distinguishable in batched output.
func Write(w io.Writer, name, runID string, g *proof.Graph, sol solve.Solution, timing Timing, timeout Timeout) error {
	e := &encoder{w: w}
	e.openTag("proofgraph", attrs{
		{"id", runID},
		{"name", name},
		{"state", sol.Type.String()},
		{"objective", formatFloat(sol.Objective)},
	})
	e.writeTime(timing)
	e.writeTimeout(timeout, sol.TimedOut)
	e.writeRequirements(g, sol)
	e.writeLiterals(g, sol)
	e.writeExplanations(g, sol)
	e.writeUnifications(g, sol)
	e.closeTag("proofgraph")
	return e.err
}

type attrPair struct{ key, val string }
type attrs []attrPair

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *encoder) openTag(name string, a attrs) {
	e.printf("<%s", name)
	for _, p := range a {
		e.printf(" %s=\"%s\"", p.key, escapeAttr(p.val))
	}
	e.printf(">\n")
}

func (e *encoder) selfClosed(name string, a attrs) {
	e.printf("<%s", name)
	for _, p := range a {
		e.printf(" %s=\"%s\"", p.key, escapeAttr(p.val))
	}
	e.printf("></%s>\n", name)
}

func (e *encoder) closeTag(name string) {
	e.printf("</%s>\n", name)
}

func (e *encoder) leaf(name string, a attrs, body string) {
	e.printf("<%s", name)
	for _, p := range a {
		e.printf(" %s=\"%s\"", p.key, escapeAttr(p.val))
	}
	e.printf(">%s</%s>\n", escapeText(body), name)
}

func (e *encoder) writeTime(t Timing) {
	e.selfClosed("time", attrs{
		{"lhs", formatSeconds(t.LHS)},
		{"ilp", formatSeconds(t.ILP)},
		{"sol", formatSeconds(t.Sol)},
		{"all", formatSeconds(t.All)},
	})
}

func (e *encoder) writeTimeout(t Timeout, solverTimedOut bool) {
	e.selfClosed("timeout", attrs{
		{"lhs", yesNo(t.LHS)},
		{"ilp", yesNo(t.ILP)},
		{"sol", yesNo(t.Sol || solverTimedOut)},
		{"all", yesNo(t.all(solverTimedOut))},
	})
}

func (e *encoder) writeRequirements(g *proof.Graph, sol solve.Solution) {
	var ids []proof.NodeID
	for i := 0; i < g.NodeCount(); i++ {
		if g.Node(proof.NodeID(i)).Type == proof.NodeRequired {
			ids = append(ids, proof.NodeID(i))
		}
	}
	e.openTag("requirements", attrs{{"num", strconv.Itoa(len(ids))}})
	for _, n := range ids {
		satisfied := true
		if sol.Problem != nil {
			if vi := sol.Problem.ViolationVariable(n); vi >= 0 {
				satisfied = !sol.VariableActive(vi)
			}
		}
		e.leaf("requirement", attrs{{"satisfied", yesNo(satisfied)}}, g.NodeString(n))
	}
	e.closeTag("requirements")
}

func (e *encoder) writeLiterals(g *proof.Graph, sol solve.Solution) {
	var ids []proof.NodeID
	for i := 0; i < g.NodeCount(); i++ {
		n := proof.NodeID(i)
		switch g.Node(n).Type {
		case proof.NodeEquality, proof.NodeNegEquality:
			continue
		}
		ids = append(ids, n)
	}
	e.openTag("literals", attrs{{"num", strconv.Itoa(len(ids))}})
	for _, n := range ids {
		node := g.Node(n)
		active := false
		if sol.Problem != nil {
			active = sol.VariableActive(sol.Problem.NodeVariable(n))
		}
		e.leaf("literal", attrs{
			{"id", strconv.Itoa(int(n))},
			{"type", nodeTypeName(node.Type)},
			{"depth", strconv.Itoa(node.Depth)},
			{"active", yesNo(active)},
		}, g.NodeString(n))
	}
	e.closeTag("literals")
}

func (e *encoder) writeExplanations(g *proof.Graph, sol solve.Solution) {
	var ids []proof.EdgeID
	for i := 0; i < g.EdgeCount(); i++ {
		id := proof.EdgeID(i)
		if !g.Edge(id).IsUnification {
			ids = append(ids, id)
		}
	}
	e.openTag("explanations", attrs{{"num", strconv.Itoa(len(ids))}})
	for _, id := range ids {
		edge := g.Edge(id)
		active := false
		if sol.Problem != nil {
			active = sol.VariableActive(sol.Problem.EdgeVariable(id))
		}
		axiom := "_blank"
		if r, err := g.KB.Rule(edge.RuleID, g.Interner); err == nil && r.Name != "" {
			axiom = r.Name
		}
		e.leaf("explanation", attrs{
			{"id", strconv.Itoa(int(id))},
			{"tail", g.HypernodeString(edge.Tail)},
			{"head", g.HypernodeString(edge.Head)},
			{"active", yesNo(active)},
			{"backward", yesNo(edge.Direction == proof.DirectionBackward)},
			{"axiom", axiom},
		}, g.EdgeString(id))
	}
	e.closeTag("explanations")
}

func (e *encoder) writeUnifications(g *proof.Graph, sol solve.Solution) {
	var ids []proof.EdgeID
	for i := 0; i < g.EdgeCount(); i++ {
		id := proof.EdgeID(i)
		if g.Edge(id).IsUnification {
			ids = append(ids, id)
		}
	}
	e.openTag("unifications", attrs{{"num", strconv.Itoa(len(ids))}})
	for _, id := range ids {
		edge := g.Edge(id)
		members := g.Hypernode(edge.Tail).Members
		l1, l2 := -1, -1
		if len(members) > 0 {
			l1 = int(members[0])
		}
		if len(members) > 1 {
			l2 = int(members[1])
		}
		unifier := ""
		if edge.Head != proof.InvalidHypernode {
			for i, m := range g.Hypernode(edge.Head).Members {
				eq := g.Node(m).Atom
				if i > 0 {
					unifier += ", "
				}
				unifier += g.Interner.String(eq.Terms[0]) + "=" + g.Interner.String(eq.Terms[1])
			}
		}
		active := false
		if sol.Problem != nil {
			active = sol.VariableActive(sol.Problem.EdgeVariable(id))
		}
		e.leaf("unification", attrs{
			{"l1", strconv.Itoa(l1)},
			{"l2", strconv.Itoa(l2)},
			{"unifier", unifier},
			{"active", yesNo(active)},
		}, g.EdgeString(id))
	}
	e.closeTag("unifications")
}

func nodeTypeName(t proof.NodeType) string {
	switch t {
	case proof.NodeObservation:
		return "observation"
	case proof.NodeHypothesis:
		return "hypothesis"
	case proof.NodeRequired:
		return "requirement"
	default:
		return "unknown"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escapeText escapes &, <, > for element text content.
func escapeText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

// escapeAttr escapes &, <, and " for double-quoted attribute values.
func escapeAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '"':
			out = append(out, "&quot;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
