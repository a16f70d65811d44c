// Package cdb implements a constant-database (cdb) reader and writer: an
// immutable, disk-backed hash table keyed by arbitrary byte strings,
// supporting repeated values per key. This is the format the KB's
// conjunction and feature indices use. No cdb library appears
// anywhere in the retrieved example corpus, so this is a direct
// implementation of the classic djb cdb layout (see DESIGN.md for the
// justification required when a part of the system falls back to the
// standard library).
//
// Layout (little-endian throughout):
//
//	header:   256 * (uint32 pos, uint32 nslots)  // 256 hash-table pointers
//	records:  (uint32 klen, uint32 vlen, key, value)*
//	tables:   256 * (nslots * (uint32 hash, uint32 recordPos))
//
// The header's 256 entries point to the 256 secondary hash tables, one per
// low byte of the key hash, and give each table's slot count. Each
// secondary table is open-addressed with linear probing. Lookups allocate
// small scratch buffers for each probed slot and record besides the
// returned value slices.
package cdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const numTables = 256

// hash is the djb cdb hash function.
func hash(b []byte) uint32 {
	h := uint32(5381)
	for _, c := range b {
		h = (h << 5) + h // h * 33
		h ^= uint32(c)
	}
	return h
}

type slot struct {
	hash uint32
	pos  uint32
}

type tableEntry struct {
	pos   uint32 // file offset of the table
	nslot uint32
}

// Writer builds a cdb file. It is write-only and append-only; call Close to
// flush the hash tables and header.
type Writer struct {
	f       *os.File
	w       *bufio.Writer
	pos     uint32
	buckets [numTables][]slot
}

// Create opens path for writing a new cdb file, truncating any existing
// contents.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f, w: bufio.NewWriter(f)}
	// Reserve space for the 256-entry header; filled in on Close.
	hdr := make([]byte, numTables*8)
	if _, err := w.w.Write(hdr); err != nil {
		f.Close()
		return nil, err
	}
	w.pos = uint32(len(hdr))
	return w, nil
}

// Put appends one (key, value) record and indexes it for lookup. Multiple
// values may be stored under the same key; Reader.GetAll returns all of
// them in insertion order.
func (w *Writer) Put(key, value []byte) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(key)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(value)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(key); err != nil {
		return err
	}
	if _, err := w.w.Write(value); err != nil {
		return err
	}

	h := hash(key)
	table := h % numTables
	w.buckets[table] = append(w.buckets[table], slot{hash: h, pos: w.pos})
	w.pos += 8 + uint32(len(key)) + uint32(len(value))
	return nil
}

// Close writes the secondary hash tables and the header, then closes the
// underlying file.
func (w *Writer) Close() error {
	var entries [numTables]tableEntry

	for t := 0; t < numTables; t++ {
		b := w.buckets[t]
		nslot := uint32(len(b)) * 2
		if nslot == 0 {
			entries[t] = tableEntry{pos: w.pos, nslot: 0}
			continue
		}
		table := make([]slot, nslot)
		occupied := make([]bool, nslot)
		for _, s := range b {
			i := (s.hash / numTables) % nslot
			for occupied[i] {
				i = (i + 1) % nslot
			}
			occupied[i] = true
			table[i] = s
		}
		entries[t] = tableEntry{pos: w.pos, nslot: nslot}
		var rec [8]byte
		for _, s := range table {
			binary.LittleEndian.PutUint32(rec[0:4], s.hash)
			binary.LittleEndian.PutUint32(rec[4:8], s.pos)
			if _, err := w.w.Write(rec[:]); err != nil {
				return err
			}
			w.pos += 8
		}
	}

	if err := w.w.Flush(); err != nil {
		return err
	}

	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	hdr := make([]byte, numTables*8)
	for t, e := range entries {
		binary.LittleEndian.PutUint32(hdr[t*8:t*8+4], e.pos)
		binary.LittleEndian.PutUint32(hdr[t*8+4:t*8+8], e.nslot)
	}
	if _, err := w.f.Write(hdr); err != nil {
		return err
	}
	return w.f.Close()
}

// Reader provides random-access lookup over a cdb file produced by Writer.
// A Reader retains a single open file handle per process.
type Reader struct {
	f       *os.File
	header  [numTables]tableEntry
}

// Open opens path for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f}
	hdr := make([]byte, numTables*8)
	if _, err := io.ReadFull(f, hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("cdb: truncated header: %w", err)
	}
	for t := 0; t < numTables; t++ {
		r.header[t] = tableEntry{
			pos:   binary.LittleEndian.Uint32(hdr[t*8 : t*8+4]),
			nslot: binary.LittleEndian.Uint32(hdr[t*8+4 : t*8+8]),
		}
	}
	return r, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// Get returns the first value stored under key, or (nil, false) if absent.
func (r *Reader) Get(key []byte) ([]byte, bool, error) {
	vals, err := r.GetAll(key)
	if err != nil || len(vals) == 0 {
		return nil, false, err
	}
	return vals[0], true, nil
}

// GetAll returns every value stored under key, in insertion order.
func (r *Reader) GetAll(key []byte) ([][]byte, error) {
	h := hash(key)
	t := h % numTables
	e := r.header[t]
	if e.nslot == 0 {
		return nil, nil
	}

	var out [][]byte
	start := (h / numTables) % e.nslot
	rec := make([]byte, 8)
	for i := uint32(0); i < e.nslot; i++ {
		slotIdx := (start + i) % e.nslot
		off := int64(e.pos) + int64(slotIdx)*8
		if _, err := r.f.ReadAt(rec, off); err != nil {
			return nil, err
		}
		slotHash := binary.LittleEndian.Uint32(rec[0:4])
		slotPos := binary.LittleEndian.Uint32(rec[4:8])
		if slotHash == 0 && slotPos == 0 {
			break // empty slot: end of probe chain
		}
		if slotHash != h {
			continue
		}
		v, matched, err := r.readRecordIfKeyMatches(int64(slotPos), key)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *Reader) readRecordIfKeyMatches(pos int64, key []byte) ([]byte, bool, error) {
	lens := make([]byte, 8)
	if _, err := r.f.ReadAt(lens, pos); err != nil {
		return nil, false, err
	}
	klen := binary.LittleEndian.Uint32(lens[0:4])
	vlen := binary.LittleEndian.Uint32(lens[4:8])
	if int(klen) != len(key) {
		return nil, false, nil
	}
	buf := make([]byte, int(klen)+int(vlen))
	if _, err := r.f.ReadAt(buf, pos+8); err != nil {
		return nil, false, err
	}
	gotKey := buf[:klen]
	for i := range gotKey {
		if gotKey[i] != key[i] {
			return nil, false, nil
		}
	}
	return buf[klen:], true, nil
}
