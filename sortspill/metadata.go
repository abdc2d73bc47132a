// Package sortspill implements the external-sort stage of the duplicate
// pipeline: batching, parallel in-memory sort, compressed spill files, and a
// k-way merge back into one ordered stream. It is deliberately ignorant of
// BAM/SAM; it only knows how to order and persist Metadata records.
package sortspill

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Size is the fixed encoded length of a Metadata record, in bytes.
const Size = 43

// Metadata is the sort key and payload produced by the pair resolver for
// every mapped primary alignment (or resolved pair of alignments). The field
// order mirrors the total order used by the external sorter and the group
// classifier: lib_id, ref_id1, pos1, rev1, rev2, ref_id2, pos2, score, with
// idx1/idx2 breaking ties deterministically.
type Metadata struct {
	LibID      int32
	RefID1     int32
	Pos1       int32
	Rev1       uint8
	Rev2       uint8
	RefID2     int32
	Pos2       int32
	Score      uint32
	Idx1       uint64
	Idx2       uint64
	PairedEnd  uint8
}

// NewFragment builds a Metadata entry for a single-end read, or a paired read
// whose mate is unmapped or missing.
func NewFragment(libID, refID, pos int32, rev uint8, score uint32, idx uint64) Metadata {
	return Metadata{
		LibID:  libID,
		RefID1: refID,
		Pos1:   pos,
		Rev1:   rev,
		RefID2: -1,
		Idx1:   idx,
		Score:  score,
	}
}

// NewPair builds a Metadata entry for a resolved PE pair. The caller must
// already have canonicalized left/right so that (refID1,pos1) is
// lexicographically <= (refID2,pos2).
func NewPair(libID, refID1, pos1 int32, rev1 uint8, refID2, pos2 int32, rev2 uint8, score uint32, idx1, idx2 uint64) Metadata {
	return Metadata{
		LibID:     libID,
		RefID1:    refID1,
		Pos1:      pos1,
		Rev1:      rev1,
		Rev2:      rev2,
		RefID2:    refID2,
		Pos2:      pos2,
		Score:     score,
		Idx1:      idx1,
		Idx2:      idx2,
		PairedEnd: 1,
	}
}

// IsFragment reports whether m is a fragment/SE entry rather than a resolved
// pair.
func (m Metadata) IsFragment() bool { return m.RefID2 == -1 }

// GroupKey returns the 4-tuple that the group classifier buckets entries by.
func (m Metadata) GroupKey() (int32, int32, int32, uint8) {
	return m.LibID, m.RefID1, m.Pos1, m.Rev1
}

// Less implements the total order of spec §3: lib_id, ref_id1, pos1, rev1,
// rev2, ref_id2, pos2, score, then idx1, idx2 to make the order deterministic.
func (m Metadata) Less(o Metadata) bool {
	if m.LibID != o.LibID {
		return m.LibID < o.LibID
	}
	if m.RefID1 != o.RefID1 {
		return m.RefID1 < o.RefID1
	}
	if m.Pos1 != o.Pos1 {
		return m.Pos1 < o.Pos1
	}
	if m.Rev1 != o.Rev1 {
		return m.Rev1 < o.Rev1
	}
	if m.Rev2 != o.Rev2 {
		return m.Rev2 < o.Rev2
	}
	if m.RefID2 != o.RefID2 {
		return m.RefID2 < o.RefID2
	}
	if m.Pos2 != o.Pos2 {
		return m.Pos2 < o.Pos2
	}
	if m.Score != o.Score {
		return m.Score < o.Score
	}
	if m.Idx1 != o.Idx1 {
		return m.Idx1 < o.Idx1
	}
	return m.Idx2 < o.Idx2
}

// Encode appends the 43-byte little-endian encoding of m to buf, returning
// the extended slice.
func (m Metadata) Encode(buf []byte) []byte {
	var b [Size]byte
	binary.LittleEndian.PutUint32(b[0:4], uint32(m.LibID))
	binary.LittleEndian.PutUint32(b[4:8], uint32(m.RefID1))
	binary.LittleEndian.PutUint32(b[8:12], uint32(m.Pos1))
	b[12] = m.Rev1
	b[13] = m.Rev2
	binary.LittleEndian.PutUint32(b[14:18], uint32(m.RefID2))
	binary.LittleEndian.PutUint32(b[18:22], uint32(m.Pos2))
	binary.LittleEndian.PutUint32(b[22:26], m.Score)
	binary.LittleEndian.PutUint64(b[26:34], m.Idx1)
	binary.LittleEndian.PutUint64(b[34:42], m.Idx2)
	b[42] = m.PairedEnd
	return append(buf, b[:]...)
}

// Decode reads one Metadata record from r. It returns io.EOF (and a zero
// Metadata) when r is exhausted exactly at a record boundary; any other
// short read is a truncation error, distinct from a clean end of stream.
func Decode(r io.Reader) (Metadata, error) {
	var b [Size]byte
	if _, err := io.ReadFull(r, b[:1]); err != nil {
		if err == io.EOF {
			return Metadata{}, io.EOF
		}
		return Metadata{}, fmt.Errorf("sortspill: reading metadata: %w", err)
	}
	if _, err := io.ReadFull(r, b[1:]); err != nil {
		return Metadata{}, fmt.Errorf("sortspill: truncated metadata record: %w", err)
	}
	m := Metadata{
		LibID:     int32(binary.LittleEndian.Uint32(b[0:4])),
		RefID1:    int32(binary.LittleEndian.Uint32(b[4:8])),
		Pos1:      int32(binary.LittleEndian.Uint32(b[8:12])),
		Rev1:      b[12],
		Rev2:      b[13],
		RefID2:    int32(binary.LittleEndian.Uint32(b[14:18])),
		Pos2:      int32(binary.LittleEndian.Uint32(b[18:22])),
		Score:     binary.LittleEndian.Uint32(b[22:26]),
		Idx1:      binary.LittleEndian.Uint64(b[26:34]),
		Idx2:      binary.LittleEndian.Uint64(b[34:42]),
		PairedEnd: b[42],
	}
	return m, nil
}
