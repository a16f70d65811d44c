// Package kb implements the compiled knowledge base: six on-disk
// sub-stores (rule library, predicate library, conjunction index,
// feature index, group index, reachability matrix), compiled once and
// opened read-only for query.
package kb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gitrdm/abductio/pkg/term"
)

const (
	fileRuleIndex    = "rules.idx"
	fileRuleData     = "rules.dat"
	filePredicates   = "predicates.bin"
	fileConjIndex    = "conj.cdb"
	fileFeatureIndex = "feature.cdb"
	fileGroups       = "groups.bin"
	fileReachability = "reach.bin"
	fileMeta         = "kb.meta"
)

// Config is the KB's compile-time configuration, persisted in kb.meta and
// checked for consistency whenever a query handle is opened: a query must
// not silently run against a KB compiled under different settings.
type Config struct {
	MaxDistance  float32
	DistanceKey  string
	StopWords    []string
}

// KnowledgeBase is the unified handle over all six sub-stores. It is
// opened in exactly one of two modes for its entire lifetime: compile
// (write-only, append-only, via OpenCompile) or query (read-only, random
// access, via OpenQuery).
type KnowledgeBase struct {
	mode Mode
	dir  string

	predicates *term.Library
	rules      *RuleLibrary
	groups     *groupIndex
	matrix     *Matrix
	config     Config

	// compile mode only
	interner     *term.Interner
	conjBuilder  *conjunctionIndexBuilder
	featBuilder  *featureIndexBuilder
	compiledRule []term.Rule

	// query mode only
	conjReader *conjunctionIndexReader
	featReader *featureIndexReader
}

// OpenCompile begins a fresh compile session in dir, which must already
// exist. interner is used to re-materialize rules for reachability-matrix
// construction at Finalize; the predicate library is built up via
// AddPredicate as rules reference new predicates.
func OpenCompile(dir string, interner *term.Interner, cfg Config) (*KnowledgeBase, error) {
	idxPath := filepath.Join(dir, fileRuleIndex)
	datPath := filepath.Join(dir, fileRuleData)
	rules, err := openRuleLibraryCompile(idxPath, datPath)
	if err != nil {
		return nil, err
	}
	return &KnowledgeBase{
		mode:        ModeCompile,
		dir:         dir,
		predicates:  term.NewLibrary(),
		rules:       rules,
		groups:      newGroupIndex(),
		config:      cfg,
		interner:    interner,
		conjBuilder: newConjunctionIndexBuilder(),
		featBuilder: newFeatureIndexBuilder(),
	}, nil
}

// AddPredicate registers a predicate (and optional relational property
// flags) in the compile-mode predicate library. Safe to call redundantly
// with the same (name, arity): registration is idempotent.
func (kb *KnowledgeBase) AddPredicate(p term.Predicate, flags term.PropertyFlag) (term.PredicateID, error) {
	if kb.mode != ModeCompile {
		return term.InvalidPredicate, fmt.Errorf("kb: not open for compilation")
	}
	id, ok := kb.predicates.Add(p)
	if !ok {
		return term.InvalidPredicate, fmt.Errorf("kb: invalid predicate %+v", p)
	}
	if flags != 0 {
		kb.predicates.AddProperty(term.NewProperty(id, p.Arity, flags))
	}
	return id, nil
}

// AddRule appends rule to the rule library, records it in the group
// index, records its lhs/rhs conjunction patterns in the pattern
// indices, and retains it in memory for the Finalize-time reachability
// walk.
func (kb *KnowledgeBase) AddRule(rule term.Rule) (term.RuleID, error) {
	if kb.mode != ModeCompile {
		return 0, fmt.Errorf("kb: not open for compilation")
	}

	disk := toDiskRule(rule, kb.interner)
	id, err := kb.rules.Add(disk)
	if err != nil {
		return 0, err
	}
	rule.ID = id

	kb.groups.record(rule)

	lhsFeature, lhsHard := conjunctionPattern(rule.LHS)
	kb.conjBuilder.record(lhsFeature, true)
	kb.featBuilder.record(lhsFeature, lhsHard, id, true)

	rhsFeature, rhsHard := conjunctionPattern(rule.RHS)
	kb.conjBuilder.record(rhsFeature, false)
	kb.featBuilder.record(rhsFeature, rhsHard, id, false)

	kb.compiledRule = append(kb.compiledRule, rule)
	return id, nil
}

// Finalize writes every remaining sub-store to disk (predicates, group
// index, pattern indices, reachability matrix, config blob) and closes
// the rule library. The KnowledgeBase must not be used afterward; reopen
// with OpenQuery.
func (kb *KnowledgeBase) Finalize(ctx context.Context, workers int) error {
	if kb.mode != ModeCompile {
		return fmt.Errorf("kb: not open for compilation")
	}

	dist, err := DistanceFuncByKey(kb.config.DistanceKey)
	if err != nil {
		return err
	}
	stop := make(map[string]struct{}, len(kb.config.StopWords))
	for _, w := range kb.config.StopWords {
		stop[w] = struct{}{}
	}

	matrix, err := BuildMatrix(ctx, kb.compiledRule, kb.predicates, BuildMatrixConfig{
		MaxDistance: kb.config.MaxDistance,
		Workers:     workers,
		Distance:    dist,
		StopWords:   stop,
	})
	if err != nil {
		return err
	}

	if err := writeMatrix(filepath.Join(kb.dir, fileReachability), matrix); err != nil {
		return err
	}
	if err := writePredicateFile(filepath.Join(kb.dir, filePredicates), kb.predicates); err != nil {
		return err
	}
	if err := writeGroupIndex(filepath.Join(kb.dir, fileGroups), kb.groups); err != nil {
		return err
	}
	if err := kb.conjBuilder.flush(filepath.Join(kb.dir, fileConjIndex)); err != nil {
		return err
	}
	if err := kb.featBuilder.flush(filepath.Join(kb.dir, fileFeatureIndex)); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(kb.dir, fileMeta), kb.config); err != nil {
		return err
	}
	return kb.rules.Finalize()
}

// OpenQuery opens a previously-finalized KB directory read-only.
func OpenQuery(dir string) (*KnowledgeBase, error) {
	cfg, err := readConfig(filepath.Join(dir, fileMeta))
	if err != nil {
		return nil, err
	}

	predicates, err := loadPredicateFile(filepath.Join(dir, filePredicates))
	if err != nil {
		return nil, err
	}

	arityOf := func(pid term.PredicateID) (int, bool) {
		p, ok := predicates.Get(pid)
		if !ok {
			return 0, false
		}
		return p.Arity, true
	}

	rules, err := openRuleLibraryQuery(filepath.Join(dir, fileRuleIndex), filepath.Join(dir, fileRuleData), arityOf)
	if err != nil {
		return nil, err
	}

	groups, err := loadGroupIndex(filepath.Join(dir, fileGroups))
	if err != nil {
		rules.Finalize()
		return nil, err
	}

	conjReader, err := openConjunctionIndex(filepath.Join(dir, fileConjIndex))
	if err != nil {
		rules.Finalize()
		return nil, err
	}

	featReader, err := openFeatureIndex(filepath.Join(dir, fileFeatureIndex))
	if err != nil {
		conjReader.Close()
		rules.Finalize()
		return nil, err
	}

	matrix, err := loadMatrix(filepath.Join(dir, fileReachability))
	if err != nil {
		featReader.Close()
		conjReader.Close()
		rules.Finalize()
		return nil, err
	}

	return &KnowledgeBase{
		mode:       ModeQuery,
		dir:        dir,
		predicates: predicates,
		rules:      rules,
		groups:     groups,
		matrix:     matrix,
		config:     cfg,
		conjReader: conjReader,
		featReader: featReader,
	}, nil
}

// Close releases all file handles held by a query-mode KB.
func (kb *KnowledgeBase) Close() error {
	if kb.mode != ModeQuery {
		return nil
	}
	var firstErr error
	if err := kb.featReader.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := kb.conjReader.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := kb.rules.Finalize(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Predicates returns the KB's predicate library.
func (kb *KnowledgeBase) Predicates() *term.Library { return kb.predicates }

// Config returns the KB's compile-time configuration.
func (kb *KnowledgeBase) Config() Config { return kb.config }

// Rule returns the rule compiled under id (query mode only).
func (kb *KnowledgeBase) Rule(id term.RuleID, in *term.Interner) (term.Rule, error) {
	disk, err := kb.rules.Get(id)
	if err != nil {
		return term.Rule{}, err
	}
	return disk.Materialize(in), nil
}

// RuleCount returns the number of compiled rules.
func (kb *KnowledgeBase) RuleCount() int { return kb.rules.Size() }

// RuleIDsInGroup returns every rule id sharing group tag name.
func (kb *KnowledgeBase) RuleIDsInGroup(name string) []term.RuleID { return kb.groups.RuleIDsInGroup(name) }

// GroupsOf returns every group tag containing ruleID.
func (kb *KnowledgeBase) GroupsOf(ruleID term.RuleID) []string { return kb.groups.GroupsOf(ruleID) }

// FeaturesFor returns every conjunction feature in which pid participates
// (query mode only).
func (kb *KnowledgeBase) FeaturesFor(pid term.PredicateID) ([]ConjunctionOccurrence, error) {
	return kb.conjReader.FeaturesFor(pid)
}

// MatchesFor returns every rule whose lhs or rhs pattern exactly matches
// (feature, hard) (query mode only).
func (kb *KnowledgeBase) MatchesFor(feature term.Feature, hard []HardTermPair) ([]RuleMatch, error) {
	return kb.featReader.MatchesFor(feature, hard)
}

// Distance returns the reachability-matrix distance between two
// predicates, or Unreachable.
func (kb *KnowledgeBase) Distance(a, b term.PredicateID) float32 {
	return kb.matrix.Get(a, b)
}

// toDiskRule converts an in-memory term.Rule back into its on-disk form,
// resolving interned term ids back to printable names via in.
func toDiskRule(r term.Rule, in *term.Interner) DiskRule {
	return DiskRule{
		ID:   r.ID,
		Name: r.Name,
		LHS:  toDiskConjunction(r.LHS, in),
		RHS:  toDiskConjunction(r.RHS, in),
	}
}

func toDiskConjunction(c term.Conjunction, in *term.Interner) DiskConjunction {
	atoms := make([]DiskAtom, len(c.Atoms))
	for i, a := range c.Atoms {
		names := make([]string, len(a.Terms))
		for j, id := range a.Terms {
			names[j] = in.String(id)
		}
		atoms[i] = DiskAtom{Predicate: a.Predicate, Terms: names, Truth: a.Truth, NAF: a.NAF, Param: a.Param}
	}
	return DiskConjunction{Atoms: atoms, Param: c.Param}
}
