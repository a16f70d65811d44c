package kb

import (
	"bytes"
	"encoding/binary"

	"github.com/gitrdm/abductio/pkg/cdb"
	"github.com/gitrdm/abductio/pkg/term"
)

// TermPos locates an argument slot within a conjunction: the index of the
// atom and the index of the argument within that atom's term tuple.
type TermPos struct {
	AtomIdx uint8
	ArgIdx  uint8
}

// HardTermPair records that two argument positions within a conjunction
// pattern are pinned to the same term, so the pattern index key is
// specific to axioms that repeat a variable across those two slots, not
// merely to the predicate multiset.
type HardTermPair struct{ A, B TermPos }

// conjunctionPattern derives a conjunction's feature (sorted predicate-id
// multiset over non-equality atoms) and its hard-term pairs (any two
// argument slots, across non-equality atoms, that are pinned to the same
// term).
func conjunctionPattern(c term.Conjunction) (term.Feature, []HardTermPair) {
	type occurrence struct {
		pos TermPos
		id  term.ID
	}
	var occs []occurrence
	atomIdx := 0
	for _, a := range c.Atoms {
		if a.IsEquality() {
			continue
		}
		for argIdx, t := range a.Terms {
			occs = append(occs, occurrence{pos: TermPos{AtomIdx: uint8(atomIdx), ArgIdx: uint8(argIdx)}, id: t})
		}
		atomIdx++
	}

	var hard []HardTermPair
	seen := make(map[term.ID]TermPos)
	for _, o := range occs {
		if first, ok := seen[o.id]; ok {
			hard = append(hard, HardTermPair{A: first, B: o.pos})
		} else {
			seen[o.id] = o.pos
		}
	}
	return c.Feature(), hard
}

// featureKey serializes a feature for use as a cdb key in the
// feature->rule-ids index: predicate ids followed by hard-term pair
// positions.
func featureKey(f term.Feature, hard []HardTermPair) []byte {
	var buf bytes.Buffer
	for _, pid := range f {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(pid))
		buf.Write(b[:])
	}
	for _, h := range hard {
		buf.WriteByte(h.A.AtomIdx)
		buf.WriteByte(h.A.ArgIdx)
		buf.WriteByte(h.B.AtomIdx)
		buf.WriteByte(h.B.ArgIdx)
	}
	return buf.Bytes()
}

func predicateKey(pid term.PredicateID) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(pid))
	return b[:]
}

// conjunctionIndexBuilder accumulates (predicate id -> feature occurrence)
// facts during compile, to be flushed into a cdb file on finalize.
type conjunctionIndexBuilder struct {
	entries []conjOccurrence
}

type conjOccurrence struct {
	predicate  term.PredicateID
	feature    term.Feature
	isBackward bool // true if this predicate occurs in the rule's lhs
}

func newConjunctionIndexBuilder() *conjunctionIndexBuilder {
	return &conjunctionIndexBuilder{}
}

func (b *conjunctionIndexBuilder) record(feature term.Feature, isBackward bool) {
	seen := make(map[term.PredicateID]struct{})
	for _, pid := range feature {
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		b.entries = append(b.entries, conjOccurrence{predicate: pid, feature: feature, isBackward: isBackward})
	}
}

func (b *conjunctionIndexBuilder) flush(path string) error {
	w, err := cdb.Create(path)
	if err != nil {
		return err
	}
	for _, e := range b.entries {
		var val bytes.Buffer
		if e.isBackward {
			val.WriteByte(1)
		} else {
			val.WriteByte(0)
		}
		for _, pid := range e.feature {
			var b4 [4]byte
			binary.LittleEndian.PutUint32(b4[:], uint32(pid))
			val.Write(b4[:])
		}
		if err := w.Put(predicateKey(e.predicate), val.Bytes()); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// ConjunctionOccurrence is a decoded entry from the conjunction index: one
// feature in which the queried predicate participates, and whether that
// participation was on the rule's lhs (backward) or rhs (forward).
type ConjunctionOccurrence struct {
	Feature    term.Feature
	IsBackward bool
}

// conjunctionIndexReader is the query-mode view over conj.cdb.
type conjunctionIndexReader struct{ r *cdb.Reader }

func openConjunctionIndex(path string) (*conjunctionIndexReader, error) {
	r, err := cdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &conjunctionIndexReader{r: r}, nil
}

func (c *conjunctionIndexReader) Close() error { return c.r.Close() }

// FeaturesFor returns every conjunction feature in which pid participates.
func (c *conjunctionIndexReader) FeaturesFor(pid term.PredicateID) ([]ConjunctionOccurrence, error) {
	vals, err := c.r.GetAll(predicateKey(pid))
	if err != nil {
		return nil, err
	}
	out := make([]ConjunctionOccurrence, 0, len(vals))
	for _, v := range vals {
		isBackward := v[0] == 1
		body := v[1:]
		f := make(term.Feature, 0, len(body)/4)
		for i := 0; i+4 <= len(body); i += 4 {
			f = append(f, term.PredicateID(binary.LittleEndian.Uint32(body[i:i+4])))
		}
		out = append(out, ConjunctionOccurrence{Feature: f, IsBackward: isBackward})
	}
	return out, nil
}

// featureIndexBuilder accumulates (feature -> (rule id, is_backward))
// facts during compile.
type featureIndexBuilder struct {
	entries []featureEntry
}

type featureEntry struct {
	key        []byte
	ruleID     term.RuleID
	isBackward bool
}

func newFeatureIndexBuilder() *featureIndexBuilder { return &featureIndexBuilder{} }

func (b *featureIndexBuilder) record(f term.Feature, hard []HardTermPair, ruleID term.RuleID, isBackward bool) {
	b.entries = append(b.entries, featureEntry{key: featureKey(f, hard), ruleID: ruleID, isBackward: isBackward})
}

func (b *featureIndexBuilder) flush(path string) error {
	w, err := cdb.Create(path)
	if err != nil {
		return err
	}
	for _, e := range b.entries {
		var val [9]byte
		binary.LittleEndian.PutUint64(val[0:8], uint64(e.ruleID))
		if e.isBackward {
			val[8] = 1
		}
		if err := w.Put(e.key, val[:]); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// RuleMatch is a decoded entry from the feature index: a rule whose lhs
// (is_backward) or rhs exactly matches a queried feature/hard-term
// pattern.
type RuleMatch struct {
	RuleID     term.RuleID
	IsBackward bool
}

type featureIndexReader struct{ r *cdb.Reader }

func openFeatureIndex(path string) (*featureIndexReader, error) {
	r, err := cdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &featureIndexReader{r: r}, nil
}

func (f *featureIndexReader) Close() error { return f.r.Close() }

// MatchesFor returns every rule whose recorded pattern exactly equals
// (feature, hard).
func (f *featureIndexReader) MatchesFor(feature term.Feature, hard []HardTermPair) ([]RuleMatch, error) {
	vals, err := f.r.GetAll(featureKey(feature, hard))
	if err != nil {
		return nil, err
	}
	out := make([]RuleMatch, 0, len(vals))
	for _, v := range vals {
		out = append(out, RuleMatch{
			RuleID:     term.RuleID(binary.LittleEndian.Uint64(v[0:8])),
			IsBackward: v[8] != 0,
		})
	}
	return out, nil
}
