package markduplicates

import (
	"fmt"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// rewriteStats reports what the second pass did, for parity with the first
// pass's informational counters.
type rewriteStats struct {
	RecordsWritten uint64
	RecordsDropped uint64
}

// rewrite streams every record from r to w in original order, toggling the
// DUPLICATE flag bit according to dups (or dropping the record entirely, if
// removeDuplicates is set) for every non-secondary, non-supplementary record.
// w must already have been created with the header to emit; rewrite writes
// records only.
func rewrite(r *bam.Reader, w *bam.Writer, dups *dupIndex, removeDuplicates bool) (rewriteStats, error) {
	var stats rewriteStats
	var idx uint64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("markduplicates: reading record %d for rewrite: %w", idx, err)
		}

		special := rec.Flags&(sam.Secondary|sam.Supplementary) != 0
		isDup := !special && dups.contains(idx)

		if isDup && removeDuplicates {
			stats.RecordsDropped++
			idx++
			continue
		}

		if !special {
			if isDup {
				rec.Flags |= sam.Duplicate
			} else {
				rec.Flags &^= sam.Duplicate
			}
		}

		if err := w.Write(rec); err != nil {
			return stats, fmt.Errorf("markduplicates: writing record %d: %w", idx, err)
		}
		stats.RecordsWritten++
		idx++
	}
	return stats, nil
}
