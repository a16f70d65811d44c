package ilp

import (
	"fmt"

	"github.com/gitrdm/abductio/pkg/proof"
)

// defaultRequirementPenalty is the objective coefficient paid by a
// requirement's violation variable when nothing supports it, large
// enough to dominate any realistic sum of node costs.
const defaultRequirementPenalty = 1e6

// Encoder walks a completed (or timed-out) proof graph and produces an
// ILP Problem, grounded on ilp_problem.h's ilp_problem_t.
type Encoder struct {
	Graph *proof.Graph
	Cost  CostProvider

	// Economize collapses hypernode/edge variables into an equivalent
	// node variable wherever possible ("economization").
	Economize bool

	// RequirementPenalty overrides defaultRequirementPenalty when
	// nonzero.
	RequirementPenalty float64
}

// Encode builds the Problem for e.Graph's current state.
func (e Encoder) Encode() *Problem {
	g := e.Graph
	cost := e.Cost
	if cost == nil {
		cost = UniformCost{Value: 1}
	}
	penalty := e.RequirementPenalty
	if penalty == 0 {
		penalty = defaultRequirementPenalty
	}

	p := newProblem("abduction", false)
	p.TimedOut = g.TimedOut

	economizedHyper := make(map[proof.HypernodeID]bool)
	economizedEdge := make(map[proof.EdgeID]bool)

	e.encodeNodeVariables(g, p, cost)
	e.encodeHypernodeVariables(g, p, economizedHyper)
	e.encodeEdgeVariables(g, p, economizedHyper, economizedEdge)

	e.encodeHypernodeMemberConstraints(g, p, economizedHyper)
	e.encodeNodeMasterConstraints(g, p)
	e.encodeHypernodeParentConstraints(g, p)
	e.encodeEdgeEndpointConstraints(g, p, economizedEdge)
	e.encodeMutualExclusionConstraints(g, p)
	e.encodeTransitiveUnificationConstraints(g, p)
	e.encodeChainConditionConstraints(g, p)
	e.encodeExclusiveGroupConstraints(g, p)
	e.encodeRequirementConstraints(g, p, penalty)

	return p
}

func (e Encoder) encodeNodeVariables(g *proof.Graph, p *Problem, cost CostProvider) {
	for i := 0; i < g.NodeCount(); i++ {
		n := proof.NodeID(i)
		node := g.Node(n)
		idx := p.addVariable(Variable{
			Name:         fmt.Sprintf("node(%d)", i),
			Kind:         VarNode,
			Coefficient:  cost.Cost(node.Atom),
			Node:         n,
			IsHypothesis: node.Type == proof.NodeHypothesis,
		})
		p.nodeVar[n] = idx
	}
}

func (e Encoder) encodeHypernodeVariables(g *proof.Graph, p *Problem, economized map[proof.HypernodeID]bool) {
	for i := 0; i < g.HypernodeCount(); i++ {
		h := proof.HypernodeID(i)
		hn := g.Hypernode(h)
		if e.Economize && len(hn.Members) == 1 {
			member := g.Node(hn.Members[0])
			if member.Type != proof.NodeEquality && member.Type != proof.NodeNegEquality {
				p.hypernodeVar[h] = p.nodeVar[hn.Members[0]]
				economized[h] = true
				continue
			}
		}
		idx := p.addVariable(Variable{
			Name:      fmt.Sprintf("hypernode(%d)", i),
			Kind:      VarHypernode,
			Hypernode: h,
		})
		p.hypernodeVar[h] = idx
	}
}

func (e Encoder) encodeEdgeVariables(g *proof.Graph, p *Problem, economizedHyper map[proof.HypernodeID]bool, economizedEdge map[proof.EdgeID]bool) {
	headCount := make(map[proof.HypernodeID]int)
	for i := 0; i < g.EdgeCount(); i++ {
		headCount[g.Edge(proof.EdgeID(i)).Head]++
	}

	for i := 0; i < g.EdgeCount(); i++ {
		id := proof.EdgeID(i)
		edge := g.Edge(id)
		if e.Economize && edge.Head != proof.InvalidHypernode &&
			economizedHyper[edge.Head] && headCount[edge.Head] == 1 {
			p.edgeVar[id] = p.hypernodeVar[edge.Head]
			economizedEdge[id] = true
			continue
		}
		idx := p.addVariable(Variable{
			Name: fmt.Sprintf("edge(%d)", i),
			Kind: VarEdge,
			Edge: id,
		})
		p.edgeVar[id] = idx
	}
}

// encodeHypernodeMemberConstraints is constraint family 1.
func (e Encoder) encodeHypernodeMemberConstraints(g *proof.Graph, p *Problem, economized map[proof.HypernodeID]bool) {
	for i := 0; i < g.HypernodeCount(); i++ {
		h := proof.HypernodeID(i)
		if economized[h] {
			continue
		}
		hn := g.Hypernode(h)
		c := Constraint{Name: fmt.Sprintf("hypernode-member(%d)", i), Op: OpGreaterEq, Lower: 0}
		for _, m := range hn.Members {
			c.addTerm(p.nodeVar[m], 1)
		}
		c.addTerm(p.hypernodeVar[h], -float64(len(hn.Members)))
		p.addConstraint(c)
	}
}

// encodeNodeMasterConstraints is constraint family 2.
func (e Encoder) encodeNodeMasterConstraints(g *proof.Graph, p *Problem) {
	for i := 0; i < g.NodeCount(); i++ {
		n := proof.NodeID(i)
		masters := g.MasterHypernodes(n)
		if len(masters) == 0 {
			continue
		}
		c := Constraint{Name: fmt.Sprintf("node-master(%d)", i), Op: OpGreaterEq, Lower: 0}
		for _, h := range masters {
			c.addTerm(p.hypernodeVar[h], 1)
		}
		c.addTerm(p.nodeVar[n], -1)
		p.addConstraint(c)
	}
}

// encodeHypernodeParentConstraints is constraint family 3.
func (e Encoder) encodeHypernodeParentConstraints(g *proof.Graph, p *Problem) {
	for i := 0; i < g.HypernodeCount(); i++ {
		h := proof.HypernodeID(i)
		hn := g.Hypernode(h)
		if len(hn.Parents) == 0 {
			continue
		}
		c := Constraint{Name: fmt.Sprintf("hypernode-parent(%d)", i), Op: OpGreaterEq, Lower: 0}
		for _, parent := range hn.Parents {
			c.addTerm(p.hypernodeVar[parent], 1)
		}
		c.addTerm(p.hypernodeVar[h], -1)
		p.addConstraint(c)
	}
}

// encodeEdgeEndpointConstraints is constraint family 4.
func (e Encoder) encodeEdgeEndpointConstraints(g *proof.Graph, p *Problem, economized map[proof.EdgeID]bool) {
	for i := 0; i < g.EdgeCount(); i++ {
		id := proof.EdgeID(i)
		if economized[id] {
			continue
		}
		edge := g.Edge(id)
		ev := p.edgeVar[id]
		c := Constraint{Name: fmt.Sprintf("edge-endpoint(%d)", i), Op: OpGreaterEq, Lower: 0}
		c.addTerm(p.hypernodeVar[edge.Tail], 1)
		if edge.Head != proof.InvalidHypernode {
			c.addTerm(p.hypernodeVar[edge.Head], 1)
			c.addTerm(ev, -2)
		} else {
			c.addTerm(ev, -1)
		}
		p.addConstraint(c)
	}
}

// encodeMutualExclusionConstraints is constraint family 5.
func (e Encoder) encodeMutualExclusionConstraints(g *proof.Graph, p *Problem) {
	for i, ex := range g.EnumerateMutualExclusiveNodes() {
		var subVars []int
		for _, pair := range ex.Unifier {
			if id, ok := g.EqualityNode(pair); ok {
				subVars = append(subVars, p.nodeVar[id])
			}
		}
		c := Constraint{
			Name: fmt.Sprintf("mutex-node(%d)", i),
			Op:   OpLessEq,
			Upper: 1 + float64(len(subVars)),
			Lazy:  true,
		}
		c.addTerm(p.nodeVar[ex.N1], 1)
		c.addTerm(p.nodeVar[ex.N2], 1)
		for _, v := range subVars {
			c.addTerm(v, 1)
		}
		p.addConstraint(c)
	}
}

// encodeTransitiveUnificationConstraints is constraint family 6, always
// lazy.
func (e Encoder) encodeTransitiveUnificationConstraints(g *proof.Graph, p *Problem) {
	for ci, cluster := range g.EnumerateVariableClusters() {
		for a := 0; a < len(cluster); a++ {
			for b := a + 1; b < len(cluster); b++ {
				for c := b + 1; c < len(cluster); c++ {
					t1, t2, t3 := cluster[a], cluster[b], cluster[c]
					e12, ok12 := g.EqualityNode(proof.NewTermPair(t1, t2))
					e23, ok23 := g.EqualityNode(proof.NewTermPair(t2, t3))
					e13, ok13 := g.EqualityNode(proof.NewTermPair(t1, t3))
					if !ok12 || !ok23 || !ok13 {
						continue
					}
					v12, v23, v13 := p.nodeVar[e12], p.nodeVar[e23], p.nodeVar[e13]
					name := fmt.Sprintf("transitive(%d,%d,%d,%d)", ci, a, b, c)
					p.addConstraint(triConstraint(name+"-a", v12, v23, v13))
					p.addConstraint(triConstraint(name+"-b", v23, v13, v12))
					p.addConstraint(triConstraint(name+"-c", v13, v12, v23))
				}
			}
		}
	}
}

// triConstraint builds "x + y - z <= 1".
func triConstraint(name string, x, y, z int) Constraint {
	c := Constraint{Name: name, Op: OpLessEq, Upper: 1, Lazy: true}
	c.addTerm(x, 1)
	c.addTerm(y, 1)
	c.addTerm(z, -1)
	return c
}

// encodeChainConditionConstraints is constraint family 7.
func (e Encoder) encodeChainConditionConstraints(g *proof.Graph, p *Problem) {
	for i := 0; i < g.EdgeCount(); i++ {
		id := proof.EdgeID(i)
		edge := g.Edge(id)
		ev := p.edgeVar[id]

		if len(edge.PositiveSubs) > 0 {
			var vars []int
			for _, pair := range edge.PositiveSubs {
				if n, ok := g.EqualityNode(pair); ok {
					vars = append(vars, p.nodeVar[n])
				}
			}
			if len(vars) > 0 {
				c := Constraint{Name: fmt.Sprintf("chain-pos(%d)", i), Op: OpGreaterEq, Lower: 0}
				for _, v := range vars {
					c.addTerm(v, 1)
				}
				c.addTerm(ev, -float64(len(vars)))
				p.addConstraint(c)
			}
		}

		if len(edge.NegativeSubs) > 0 {
			var vars []int
			for _, pair := range edge.NegativeSubs {
				if n, ok := g.EqualityNode(pair); ok {
					vars = append(vars, p.nodeVar[n])
				}
			}
			if len(vars) > 0 {
				c := Constraint{Name: fmt.Sprintf("chain-neg(%d)", i), Op: OpGreaterEq, Lower: -float64(len(vars))}
				for _, v := range vars {
					c.addTerm(v, -1)
				}
				c.addTerm(ev, -float64(len(vars)))
				p.addConstraint(c)
			}
		}
	}
}

// encodeExclusiveGroupConstraints is constraint family 8: edges applying
// rules that share a group tag at the same tail hypernode are mutually
// exclusive.
func (e Encoder) encodeExclusiveGroupConstraints(g *proof.Graph, p *Problem) {
	type groupKey struct {
		tail proof.HypernodeID
		tag  string
	}
	groups := make(map[groupKey][]proof.EdgeID)

	for i := 0; i < g.EdgeCount(); i++ {
		id := proof.EdgeID(i)
		edge := g.Edge(id)
		if edge.IsUnification {
			continue
		}
		rule, err := g.KB.Rule(edge.RuleID, g.Interner)
		if err != nil {
			continue
		}
		for _, tag := range rule.GroupTags() {
			key := groupKey{tail: edge.Tail, tag: tag}
			groups[key] = append(groups[key], id)
		}
	}

	i := 0
	for key, edges := range groups {
		if len(edges) < 2 {
			continue
		}
		c := Constraint{Name: fmt.Sprintf("exclusive-group(%s,%d)", key.tag, i), Op: OpLessEq, Upper: 1}
		for _, id := range edges {
			c.addTerm(p.edgeVar[id], 1)
		}
		p.addConstraint(c)
		i++
	}
}

// encodeRequirementConstraints is constraint family 9.
func (e Encoder) encodeRequirementConstraints(g *proof.Graph, p *Problem, penalty float64) {
	for i := 0; i < g.NodeCount(); i++ {
		n := proof.NodeID(i)
		node := g.Node(n)
		if node.Type != proof.NodeRequired {
			continue
		}
		violation := p.addVariable(Variable{
			Name:        fmt.Sprintf("violation(%d)", i),
			Kind:        VarViolation,
			Coefficient: penalty,
			Node:        n,
		})
		c := Constraint{Name: fmt.Sprintf("requirement(%d)", i), Op: OpGreaterEq, Lower: 1}
		for _, h := range g.MasterHypernodes(n) {
			c.addTerm(p.hypernodeVar[h], 1)
		}
		c.addTerm(violation, 1)
		p.addConstraint(c)
	}
}
