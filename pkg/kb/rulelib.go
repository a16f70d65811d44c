package kb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gitrdm/abductio/pkg/term"
)

// DiskAtom is the on-disk representation of an atom inside a rule. Terms
// are stored as their printable names (rule variables are rule-local and
// are re-interned fresh on every load) rather than as term.ID values,
// which are only meaningful within one process.
type DiskAtom struct {
	Predicate term.PredicateID
	Terms     []string
	Truth     bool
	NAF       bool
	Param     string
}

// DiskConjunction is the on-disk representation of term.Conjunction.
type DiskConjunction struct {
	Atoms []DiskAtom
	Param string
}

// DiskRule is the on-disk representation of term.Rule: a name and two
// conjunctions (lhs, rhs).
type DiskRule struct {
	ID   term.RuleID
	Name string
	LHS  DiskConjunction
	RHS  DiskConjunction
}

// Materialize interns every term name through in and returns a term.Rule
// ready for use by the proof-graph builder.
func (r DiskRule) Materialize(in *term.Interner) term.Rule {
	return term.Rule{
		ID:   r.ID,
		Name: r.Name,
		LHS:  r.LHS.materialize(in),
		RHS:  r.RHS.materialize(in),
	}
}

func (c DiskConjunction) materialize(in *term.Interner) term.Conjunction {
	atoms := make([]term.Atom, len(c.Atoms))
	for i, a := range c.Atoms {
		ids := make([]term.ID, len(a.Terms))
		for j, name := range a.Terms {
			ids[j] = in.Intern(name)
		}
		atoms[i] = term.NewAtom(a.Predicate, ids, a.Truth)
		atoms[i].NAF = a.NAF
		atoms[i].Param = a.Param
	}
	return term.Conjunction{Atoms: atoms, Param: c.Param}
}

func encodeAtom(w io.Writer, a DiskAtom) error {
	if err := writeU32(w, uint32(a.Predicate)); err != nil {
		return err
	}
	for _, t := range a.Terms {
		if err := writeString16(w, t); err != nil {
			return err
		}
	}
	var flags uint8
	if a.Truth {
		flags |= 0x01
	}
	if a.NAF {
		flags |= 0x02
	}
	if err := writeU8(w, flags); err != nil {
		return err
	}
	return writeString16(w, a.Param)
}

// decodeAtom reads one atom, consuming arity(predicate) term names as
// looked up via arityOf (the rule library always decodes with the
// predicate library already loaded first).
func decodeAtom(r io.Reader, arityOf func(term.PredicateID) (int, bool)) (DiskAtom, error) {
	pidRaw, err := readU32(r)
	if err != nil {
		return DiskAtom{}, err
	}
	pid := term.PredicateID(pidRaw)
	arity, ok := arityOf(pid)
	if !ok {
		return DiskAtom{}, fmt.Errorf("kb: rule references unknown predicate id %d", pid)
	}
	terms := make([]string, arity)
	for i := range terms {
		s, err := readString16(r)
		if err != nil {
			return DiskAtom{}, err
		}
		terms[i] = s
	}
	flags, err := readU8(r)
	if err != nil {
		return DiskAtom{}, err
	}
	param, err := readString16(r)
	if err != nil {
		return DiskAtom{}, err
	}
	return DiskAtom{
		Predicate: pid,
		Terms:     terms,
		Truth:     flags&0x01 != 0,
		NAF:       flags&0x02 != 0,
		Param:     param,
	}, nil
}

func encodeConjunction(w io.Writer, c DiskConjunction) error {
	if len(c.Atoms) > 0xFF {
		return fmt.Errorf("kb: conjunction has too many atoms (%d)", len(c.Atoms))
	}
	if err := writeU8(w, uint8(len(c.Atoms))); err != nil {
		return err
	}
	for _, a := range c.Atoms {
		if err := encodeAtom(w, a); err != nil {
			return err
		}
	}
	return writeString16(w, c.Param)
}

func decodeConjunction(r io.Reader, arityOf func(term.PredicateID) (int, bool)) (DiskConjunction, error) {
	n, err := readU8(r)
	if err != nil {
		return DiskConjunction{}, err
	}
	atoms := make([]DiskAtom, n)
	for i := range atoms {
		a, err := decodeAtom(r, arityOf)
		if err != nil {
			return DiskConjunction{}, err
		}
		atoms[i] = a
	}
	param, err := readString16(r)
	if err != nil {
		return DiskConjunction{}, err
	}
	return DiskConjunction{Atoms: atoms, Param: param}, nil
}

func encodeRule(r DiskRule) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeConjunction(&buf, r.LHS); err != nil {
		return nil, err
	}
	if err := encodeConjunction(&buf, r.RHS); err != nil {
		return nil, err
	}
	if err := writeString16(&buf, r.Name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRule(data []byte, arityOf func(term.PredicateID) (int, bool)) (DiskRule, error) {
	r := bytes.NewReader(data)
	lhs, err := decodeConjunction(r, arityOf)
	if err != nil {
		return DiskRule{}, err
	}
	rhs, err := decodeConjunction(r, arityOf)
	if err != nil {
		return DiskRule{}, err
	}
	name, err := readString16(r)
	if err != nil {
		return DiskRule{}, err
	}
	return DiskRule{Name: name, LHS: lhs, RHS: rhs}, nil
}

// RuleLibrary is the rule sub-store: an append-only index+data file pair in
// compile mode, a random-access reader in query mode.
type RuleLibrary struct {
	mu sync.Mutex

	mode Mode

	idxFile  *os.File
	datFile  *os.File
	writePos uint64

	// query mode
	idxEntries []indexEntry

	arityOf func(term.PredicateID) (int, bool)
	count   int
}

type indexEntry struct {
	offset uint64
	length uint32
}

func openRuleLibraryCompile(idxPath, datPath string) (*RuleLibrary, error) {
	idxFile, err := os.Create(idxPath)
	if err != nil {
		return nil, err
	}
	datFile, err := os.Create(datPath)
	if err != nil {
		idxFile.Close()
		return nil, err
	}
	return &RuleLibrary{mode: ModeCompile, idxFile: idxFile, datFile: datFile}, nil
}

func openRuleLibraryQuery(idxPath, datPath string, arityOf func(term.PredicateID) (int, bool)) (*RuleLibrary, error) {
	idxData, err := os.ReadFile(idxPath)
	if err != nil {
		return nil, err
	}
	datFile, err := os.Open(datPath)
	if err != nil {
		return nil, err
	}
	rl := &RuleLibrary{mode: ModeQuery, datFile: datFile, arityOf: arityOf}
	if err := rl.loadIndex(idxData); err != nil {
		datFile.Close()
		return nil, err
	}
	return rl, nil
}

// loadIndex parses the index file: n × (u64 offset, u32 length) followed by
// a trailing u32 entry count (written by Finalize). The record layout is
// fixed-width, so the entry count is derived from the file length rather
// than from a sentinel read failure.
func (rl *RuleLibrary) loadIndex(data []byte) error {
	const recordSize = 12
	if len(data) < 4 {
		return fmt.Errorf("kb: rule index file too short (%d bytes)", len(data))
	}
	body := data[:len(data)-4]
	if len(body)%recordSize != 0 {
		return fmt.Errorf("kb: rule index file has malformed length (%d bytes)", len(data))
	}
	n := len(body) / recordSize
	trailing := binary.LittleEndian.Uint32(data[len(data)-4:])
	if int(trailing) != n {
		return fmt.Errorf("kb: rule index trailing count %d does not match %d records", trailing, n)
	}

	entries := make([]indexEntry, n)
	r := bytes.NewReader(body)
	for i := 0; i < n; i++ {
		off, err := readU64(r)
		if err != nil {
			return err
		}
		length, err := readU32(r)
		if err != nil {
			return err
		}
		entries[i] = indexEntry{offset: off, length: length}
	}
	rl.idxEntries = entries
	rl.count = n
	return nil
}

// Add appends rule to the rule library (compile mode only) and returns its
// assigned id, dense and issued in append order.
func (rl *RuleLibrary) Add(rule DiskRule) (term.RuleID, error) {
	if rl.mode != ModeCompile {
		return 0, fmt.Errorf("kb: rule library is not writable")
	}
	data, err := encodeRule(rule)
	if err != nil {
		return 0, err
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	id := term.RuleID(rl.count)
	off := rl.writePos
	if err := writeU64(rl.idxFile, off); err != nil {
		return 0, err
	}
	if err := writeU32(rl.idxFile, uint32(len(data))); err != nil {
		return 0, err
	}
	if _, err := rl.datFile.Write(data); err != nil {
		return 0, err
	}
	rl.writePos += uint64(len(data))
	rl.count++
	return id, nil
}

// Get reads the rule with the given id by seek+fixed-read (query mode
// only).
func (rl *RuleLibrary) Get(id term.RuleID) (DiskRule, error) {
	if rl.mode != ModeQuery {
		return DiskRule{}, fmt.Errorf("kb: rule library is not readable")
	}
	if int(id) < 0 || int(id) >= len(rl.idxEntries) {
		return DiskRule{}, fmt.Errorf("kb: unknown rule id %d", id)
	}
	e := rl.idxEntries[id]

	rl.mu.Lock()
	defer rl.mu.Unlock()

	buf := make([]byte, e.length)
	if _, err := rl.datFile.ReadAt(buf, int64(e.offset)); err != nil {
		return DiskRule{}, err
	}
	r, err := decodeRule(buf, rl.arityOf)
	if err != nil {
		return DiskRule{}, err
	}
	r.ID = id
	return r, nil
}

// Size returns the number of compiled rules.
func (rl *RuleLibrary) Size() int { return rl.count }

// Finalize flushes the trailing rule count (compile mode) or closes file
// handles.
func (rl *RuleLibrary) Finalize() error {
	if rl.mode == ModeCompile {
		if err := writeU32(rl.idxFile, uint32(rl.count)); err != nil {
			return err
		}
		if err := rl.idxFile.Close(); err != nil {
			return err
		}
		return rl.datFile.Close()
	}
	return rl.datFile.Close()
}
