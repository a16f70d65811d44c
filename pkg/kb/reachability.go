package kb

import (
	"container/heap"
	"context"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/abductio/pkg/term"
	"github.com/gitrdm/abductio/internal/parallel"
)

// Unreachable is the sentinel distance for a predicate pair with no
// chaining path within the configured maximum distance.
const Unreachable float32 = -1

// edgeMaps are the direct rule-distance edges seeded before the bounded
// best-first walk.
type edgeMaps struct {
	forward  map[term.PredicateID]map[term.PredicateID]float32 // lhs -> rhs
	backward map[term.PredicateID]map[term.PredicateID]float32 // rhs -> lhs
}

func newEdgeMaps() *edgeMaps {
	return &edgeMaps{
		forward:  make(map[term.PredicateID]map[term.PredicateID]float32),
		backward: make(map[term.PredicateID]map[term.PredicateID]float32),
	}
}

func (e *edgeMaps) record(m map[term.PredicateID]map[term.PredicateID]float32, a, b term.PredicateID, d float32) {
	row, ok := m[a]
	if !ok {
		row = make(map[term.PredicateID]float32)
		m[a] = row
	}
	if old, ok := row[b]; !ok || d < old {
		row[b] = d
	}
}

// IsIgnored reports whether a predicate should be excluded from
// reachability seeding: stop-word and functional predicates both are.
// A predicate is ignored here if it carries the right-unique (functional)
// property flag, or if its name appears in the stopWords set.
func isIgnored(lib *term.Library, pid term.PredicateID, stopWords map[string]struct{}) bool {
	if p, ok := lib.Property(pid); ok && p.Is(term.FlagRightUnique) {
		return true
	}
	pred, ok := lib.Get(pid)
	if !ok {
		return true
	}
	_, stop := stopWords[pred.Name]
	return stop
}

// seedEdges builds the direct forward/backward distance maps from the
// compiled rule set.
func seedEdges(rules []term.Rule, lib *term.Library, dist DistanceFunc, stopWords map[string]struct{}) *edgeMaps {
	e := newEdgeMaps()
	for _, r := range rules {
		d := dist.Distance(r)
		lhsPreds := uniquePredicates(r.LHS)
		rhsPreds := uniquePredicates(r.RHS)
		for _, lp := range lhsPreds {
			if isIgnored(lib, lp, stopWords) {
				continue
			}
			for _, rp := range rhsPreds {
				if isIgnored(lib, rp, stopWords) {
					continue
				}
				e.record(e.forward, lp, rp, d)
				e.record(e.backward, rp, lp, d)
			}
		}
	}
	return e
}

func uniquePredicates(c term.Conjunction) []term.PredicateID {
	seen := make(map[term.PredicateID]struct{})
	var out []term.PredicateID
	for _, a := range c.Atoms {
		if a.IsEquality() {
			continue
		}
		if _, ok := seen[a.Predicate]; !ok {
			seen[a.Predicate] = struct{}{}
			out = append(out, a.Predicate)
		}
	}
	return out
}

// walkState is one node of the bounded best-first search: a predicate
// paired with which chaining directions remain available (deduction
// turns off further abduction once taken).
type walkState struct {
	pred               term.PredicateID
	abductionAllowed   bool
	deductionAllowed   bool
}

type walkItem struct {
	state walkState
	dist  float32
	index int
}

type walkQueue []*walkItem

func (q walkQueue) Len() int            { return len(q) }
func (q walkQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q walkQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index, q[j].index = i, j }
func (q *walkQueue) Push(x interface{}) { item := x.(*walkItem); item.index = len(*q); *q = append(*q, item) }
func (q *walkQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// rowFor runs the bounded best-first walk seeded at `from`, returning the
// minimum distance to every other reachable predicate (keeping the
// minimum distance reached per state).
func rowFor(from term.PredicateID, edges *edgeMaps, maxDistance float32) map[term.PredicateID]float32 {
	best := make(map[walkState]float32)
	result := make(map[term.PredicateID]float32)

	start := walkState{pred: from, abductionAllowed: true, deductionAllowed: true}
	best[start] = 0
	pq := &walkQueue{}
	heap.Init(pq)
	heap.Push(pq, &walkItem{state: start, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*walkItem)
		if d, ok := best[item.state]; ok && item.dist > d {
			continue // stale entry
		}
		if item.state.pred != from {
			if old, ok := result[item.state.pred]; !ok || item.dist < old {
				result[item.state.pred] = item.dist
			}
		}

		// Abduction: walk backward edges (rhs -> lhs), i.e. explain this
		// predicate by hypothesizing one that would chain forward into it.
		if item.state.abductionAllowed {
			for next, d := range edges.backward[item.state.pred] {
				nd := item.dist + d
				if nd > maxDistance {
					continue
				}
				ns := walkState{pred: next, abductionAllowed: true, deductionAllowed: item.state.deductionAllowed}
				if old, ok := best[ns]; !ok || nd < old {
					best[ns] = nd
					heap.Push(pq, &walkItem{state: ns, dist: nd})
				}
			}
		}
		// Deduction: walk forward edges (lhs -> rhs); taking a deduction
		// step disables any further abduction from this path.
		if item.state.deductionAllowed {
			for next, d := range edges.forward[item.state.pred] {
				nd := item.dist + d
				if nd > maxDistance {
					continue
				}
				ns := walkState{pred: next, abductionAllowed: false, deductionAllowed: true}
				if old, ok := best[ns]; !ok || nd < old {
					best[ns] = nd
					heap.Push(pq, &walkItem{state: ns, dist: nd})
				}
			}
		}
	}
	return result
}

// Matrix is the in-memory reachability matrix: symmetric, sparse minimum
// rule-distance between predicate pairs.
type Matrix struct {
	mu    sync.RWMutex
	rows  map[term.PredicateID]map[term.PredicateID]float32
	cache *lru.Cache[pairKey, float32]
}

type pairKey struct{ a, b term.PredicateID }

func canonicalPair(a, b term.PredicateID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

func newMatrix() *Matrix {
	c, _ := lru.New[pairKey, float32](4096)
	return &Matrix{rows: make(map[term.PredicateID]map[term.PredicateID]float32), cache: c}
}

func (m *Matrix) setRow(pid term.PredicateID, row map[term.PredicateID]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[pid] = row
}

// Get returns the minimum distance between a and b, or Unreachable. The
// distance cache is consulted first; the matrix is otherwise symmetric
// by construction (each worker's row walk
// discovers both directions independently), so Get(a,b) == Get(b,a).
func (m *Matrix) Get(a, b term.PredicateID) float32 {
	key := canonicalPair(a, b)
	if v, ok := m.cache.Get(key); ok {
		return v
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.rows[a]; ok {
		if d, ok := row[b]; ok {
			m.cache.Add(key, d)
			return d
		}
	}
	if row, ok := m.rows[b]; ok {
		if d, ok := row[a]; ok {
			m.cache.Add(key, d)
			return d
		}
	}
	m.cache.Add(key, Unreachable)
	return Unreachable
}

// BuildMatrixConfig configures reachability-matrix construction.
type BuildMatrixConfig struct {
	MaxDistance float32
	Workers     int
	Distance    DistanceFunc
	StopWords   map[string]struct{}
}

// BuildMatrix constructs the reachability matrix for a compiled rule set,
// fanning row computation out across Workers goroutines. Each predicate's
// row is one task on the pool's shared task channel, taken by whichever
// worker is free next, so every row is computed by exactly one worker and
// no per-row lock is needed; only the final assembly into Matrix.rows
// takes the matrix's lock, once per completed row.
func BuildMatrix(ctx context.Context, rules []term.Rule, lib *term.Library, cfg BuildMatrixConfig) (*Matrix, error) {
	edges := seedEdges(rules, lib, cfg.Distance, cfg.StopWords)
	preds := lib.All()

	m := newMatrix()
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	pool := parallel.New(workers)

	tasks := make([]parallel.Task, 0, len(preds))
	for i := range preds {
		pid := term.PredicateID(i)
		if pid == term.InvalidPredicate {
			continue
		}
		if isIgnored(lib, pid, cfg.StopWords) {
			continue
		}
		tasks = append(tasks, func(taskCtx context.Context) error {
			select {
			case <-taskCtx.Done():
				return taskCtx.Err()
			default:
			}
			row := rowFor(pid, edges, cfg.MaxDistance)
			m.setRow(pid, row)
			return nil
		})
	}

	g.Go(func() error {
		return pool.Run(gctx, tasks)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// --- disk encoding ---
//
// reach.bin layout:
//   u64 header_pos || rows...
// Each row: u64 n_entries || n × (u32 pred_id, f32 distance).
// Trailing directory at header_pos: u64 n_rows || n × (u32 pred_id, u64 row_offset).

func writeMatrix(path string, m *Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Reserve space for header_pos; filled in once rows are written.
	if err := writeU64(f, 0); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type dirEntry struct {
		pid    term.PredicateID
		offset uint64
	}
	var dir []dirEntry

	pos := uint64(8)
	for pid, row := range m.rows {
		dir = append(dir, dirEntry{pid: pid, offset: pos})
		if err := writeU64(f, uint64(len(row))); err != nil {
			return err
		}
		pos += 8
		for other, d := range row {
			if err := writeU32(f, uint32(other)); err != nil {
				return err
			}
			if err := writeF32(f, d); err != nil {
				return err
			}
			pos += 8
		}
	}

	headerPos := pos
	if err := writeU64(f, uint64(len(dir))); err != nil {
		return err
	}
	for _, e := range dir {
		if err := writeU32(f, uint32(e.pid)); err != nil {
			return err
		}
		if err := writeU64(f, e.offset); err != nil {
			return err
		}
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	return writeU64(f, headerPos)
}

func loadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	headerPos, err := readU64(f)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(int64(headerPos), 0); err != nil {
		return nil, err
	}
	nRows, err := readU64(f)
	if err != nil {
		return nil, err
	}
	type dirEntry struct {
		pid    term.PredicateID
		offset uint64
	}
	dir := make([]dirEntry, nRows)
	for i := range dir {
		pid, err := readU32(f)
		if err != nil {
			return nil, err
		}
		off, err := readU64(f)
		if err != nil {
			return nil, err
		}
		dir[i] = dirEntry{pid: term.PredicateID(pid), offset: off}
	}

	m := newMatrix()
	for _, e := range dir {
		if _, err := f.Seek(int64(e.offset), 0); err != nil {
			return nil, err
		}
		n, err := readU64(f)
		if err != nil {
			return nil, err
		}
		row := make(map[term.PredicateID]float32, n)
		for i := uint64(0); i < n; i++ {
			pid, err := readU32(f)
			if err != nil {
				return nil, err
			}
			d, err := readF32(f)
			if err != nil {
				return nil, err
			}
			row[term.PredicateID(pid)] = d
		}
		m.rows[e.pid] = row
	}
	return m, nil
}
