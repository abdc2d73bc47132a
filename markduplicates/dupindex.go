package markduplicates

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
)

// dupIndex is the compressed sparse set of input-order record indices whose
// DUPLICATE bit must be toggled on in the rewrite pass. Roaring bitmaps keep
// this sub-linear in the duplicate count even at hundreds of millions of
// records, unlike a plain Go map[uint32]struct{} or a dense []bool.
type dupIndex struct {
	bits *roaring.Bitmap
}

func newDupIndex() *dupIndex {
	return &dupIndex{bits: roaring.New()}
}

// mark records idx as a duplicate. It returns an error once idx exceeds the
// bitmap's 32-bit domain (math.MaxUint32 records), per spec's "Oversized
// input" error kind: we refuse rather than silently truncate or wrap.
func (d *dupIndex) mark(idx uint64) error {
	if idx > math.MaxUint32 {
		return fmt.Errorf("markduplicates: record index %d exceeds the duplicate-index set's 32-bit domain; "+
			"this input has more than 2^32-1 records and cannot be processed", idx)
	}
	d.bits.Add(uint32(idx))
	return nil
}

func (d *dupIndex) contains(idx uint64) bool {
	if idx > math.MaxUint32 {
		return false
	}
	return d.bits.Contains(uint32(idx))
}

func (d *dupIndex) count() uint64 {
	return d.bits.GetCardinality()
}
