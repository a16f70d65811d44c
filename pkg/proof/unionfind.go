package proof

import "github.com/gitrdm/abductio/pkg/term"

// unionFind is the variable-cluster union-find over terms unified so
// far, with path compression and union by rank.
type unionFind struct {
	parent map[term.ID]term.ID
	rank   map[term.ID]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[term.ID]term.ID), rank: make(map[term.ID]int)}
}

func (u *unionFind) find(t term.ID) term.ID {
	p, ok := u.parent[t]
	if !ok {
		u.parent[t] = t
		return t
	}
	if p == t {
		return t
	}
	root := u.find(p)
	u.parent[t] = root
	return root
}

// sameCluster reports whether a and b are already known to be unified.
func (u *unionFind) sameCluster(a, b term.ID) bool {
	return u.find(a) == u.find(b)
}

// union merges a's and b's clusters, returning false if they were already
// the same cluster (a no-op).
func (u *unionFind) union(a, b term.ID) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
	return true
}

// membersOf returns every term known to the union-find whose root is
// root, including root itself if registered.
func (u *unionFind) membersOf(root term.ID) []term.ID {
	var out []term.ID
	found := false
	for t := range u.parent {
		if u.find(t) == root {
			out = append(out, t)
			if t == root {
				found = true
			}
		}
	}
	if !found {
		out = append(out, root)
	}
	return out
}

// clusters returns a snapshot of every cluster with more than one member,
// each as a list of terms (EnumerateVariableClusters, supplemented from
// original_source/src/proof_graph.h). The order of the clusters and of
// the terms within each cluster is not defined.
func (u *unionFind) clusters() [][]term.ID {
	byRoot := make(map[term.ID][]term.ID)
	for t := range u.parent {
		r := u.find(t)
		byRoot[r] = append(byRoot[r], t)
	}
	out := make([][]term.ID, 0, len(byRoot))
	for _, members := range byRoot {
		if len(members) > 1 {
			out = append(out, members)
		}
	}
	return out
}
