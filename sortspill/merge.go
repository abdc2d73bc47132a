package sortspill

import (
	"fmt"
	"io"

	"github.com/biogo/store/llrb"
)

// mergeLeaf pairs one spill file's reader with the record it's currently
// positioned on, so the merge tree can compare leaves by their current head
// record. seq disambiguates leaves whose head records tie under Metadata's
// total order (ties are semantically irrelevant but must be handled
// deterministically).
type mergeLeaf struct {
	seq    int
	reader *spillReader
	cur    Metadata
}

func (l *mergeLeaf) Compare(c llrb.Comparable) int {
	o := c.(*mergeLeaf)
	switch {
	case l.cur.Less(o.cur):
		return -1
	case o.cur.Less(l.cur):
		return 1
	default:
		return l.seq - o.seq
	}
}

// Merger performs a k-way merge of the spill files produced by a Sorter,
// yielding Metadata records in the total order of spec §3 regardless of how
// many batches or spill files were involved. It is modeled on
// cmd/bio-bam-sort/sorter.internalMergeShards's llrb-tree merge, adapted to
// pull one record at a time rather than push through a callback.
type Merger struct {
	tree    llrb.Tree
	readers []*spillReader
}

// NewMerger opens every spill file in paths and seeds the merge tree with
// each one's first record.
func NewMerger(paths []string) (*Merger, error) {
	m := &Merger{}
	for i, p := range paths {
		r, err := openSpillReader(p)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.readers = append(m.readers, r)
		cur, err := r.next()
		if err == io.EOF {
			continue // empty spill file (e.g. a zero-record final batch).
		}
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("sortspill: seeding merge from %s: %w", p, err)
		}
		m.tree.Insert(&mergeLeaf{seq: i, reader: r, cur: cur})
	}
	return m, nil
}

// Next returns the next Metadata record in sorted order, or ok=false once
// every spill file is exhausted.
func (m *Merger) Next() (rec Metadata, ok bool, err error) {
	if m.tree.Len() == 0 {
		return Metadata{}, false, nil
	}
	top := m.tree.Min().(*mergeLeaf)
	rec = top.cur
	m.tree.DeleteMin()

	next, nerr := top.reader.next()
	switch nerr {
	case nil:
		top.cur = next
		m.tree.Insert(top)
	case io.EOF:
		// This leaf is drained; leave it out of the tree.
	default:
		return Metadata{}, false, fmt.Errorf("sortspill: merging from %s: %w", top.reader.path, nerr)
	}
	return rec, true, nil
}

// Close releases every spill file reader. It does not remove the underlying
// files; that is the scoped temp directory's responsibility.
func (m *Merger) Close() error {
	var first error
	for _, r := range m.readers {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
