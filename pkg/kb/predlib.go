package kb

import (
	"bufio"
	"fmt"
	"os"

	"github.com/gitrdm/abductio/pkg/term"
)

// writePredicateFile writes the predicate list file, with this layout:
//
//	u64 n_preds || n × (u8 len, len bytes)
//	u64 n_props || n × property_record
//
// where a property_record is `u32 pid || u8 n_flags || n × u8 flag_code`.
func writePredicateFile(path string, lib *term.Library) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	preds := lib.All()
	if err := writeU64(w, uint64(len(preds))); err != nil {
		return err
	}
	for _, p := range preds {
		if err := writeString8(w, predicateSlug(p)); err != nil {
			return err
		}
	}

	props := collectProperties(lib, len(preds))
	if err := writeU64(w, uint64(len(props))); err != nil {
		return err
	}
	for _, p := range props {
		if err := writeU32(w, uint32(p.PredicateID)); err != nil {
			return err
		}
		codes := flagCodes(p.Flags)
		if err := writeU8(w, uint8(len(codes))); err != nil {
			return err
		}
		for _, c := range codes {
			if err := writeU8(w, c); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// predicateSlug encodes "name/arity" so the single predicate-list file can
// round-trip both the name and the arity without a separate field.
func predicateSlug(p term.Predicate) string {
	return fmt.Sprintf("%s/%d", p.Name, p.Arity)
}

func collectProperties(lib *term.Library, n int) []term.Property {
	var out []term.Property
	for i := 0; i < n; i++ {
		if p, ok := lib.Property(term.PredicateID(i)); ok {
			out = append(out, p)
		}
	}
	return out
}

func flagCodes(flags term.PropertyFlag) []uint8 {
	var codes []uint8
	all := []term.PropertyFlag{
		term.FlagIrreflexive, term.FlagSymmetric, term.FlagAsymmetric,
		term.FlagTransitive, term.FlagRightUnique,
	}
	for i, f := range all {
		if flags&f != 0 {
			codes = append(codes, uint8(i))
		}
	}
	return codes
}

func flagsFromCodes(codes []uint8) term.PropertyFlag {
	all := []term.PropertyFlag{
		term.FlagIrreflexive, term.FlagSymmetric, term.FlagAsymmetric,
		term.FlagTransitive, term.FlagRightUnique,
	}
	var flags term.PropertyFlag
	for _, c := range codes {
		if int(c) < len(all) {
			flags |= all[c]
		}
	}
	return flags
}

// loadPredicateFile reads the predicate list file written by
// writePredicateFile and returns a fully populated term.Library, loaded
// fully into memory on query open.
func loadPredicateFile(path string) (*term.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	lib := term.NewLibrary()

	nPreds, err := readU64(r)
	if err != nil {
		return nil, err
	}
	// Reserved ids 0 and 1 are already seeded by NewLibrary; the file
	// still lists them so ids stay aligned with the written order.
	for i := uint64(0); i < nPreds; i++ {
		slug, err := readString8(r)
		if err != nil {
			return nil, err
		}
		name, arity, ok := parsePredicateSlug(slug)
		if !ok || i < 2 {
			continue // skip the two reserved, pre-seeded entries
		}
		lib.Add(term.Predicate{Name: name, Arity: arity})
	}

	nProps, err := readU64(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < nProps; i++ {
		pid, err := readU32(r)
		if err != nil {
			return nil, err
		}
		nFlags, err := readU8(r)
		if err != nil {
			return nil, err
		}
		codes := make([]uint8, nFlags)
		for j := range codes {
			c, err := readU8(r)
			if err != nil {
				return nil, err
			}
			codes[j] = c
		}
		flags := flagsFromCodes(codes)
		p, ok := lib.Get(term.PredicateID(pid))
		if !ok {
			continue
		}
		lib.AddProperty(term.NewProperty(term.PredicateID(pid), p.Arity, flags))
	}

	return lib, nil
}

func parsePredicateSlug(slug string) (name string, arity int, ok bool) {
	for i := len(slug) - 1; i >= 0; i-- {
		if slug[i] == '/' {
			name = slug[:i]
			a := 0
			for _, c := range slug[i+1:] {
				if c < '0' || c > '9' {
					return "", 0, false
				}
				a = a*10 + int(c-'0')
			}
			return name, a, true
		}
	}
	return "", 0, false
}
