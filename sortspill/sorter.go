package sortspill

import (
	"sync"

	"github.com/grailbio/base/errors"
)

// Sorter batches incoming Metadata records and, once a batch reaches the
// configured size, hands it to a background worker pool that sorts it
// in-memory and spills it to a compressed temp file. This mirrors
// cmd/bio-bam-sort/sorter.Sorter's bgSorterCh pattern, retargeted from whole
// BAM records to the much smaller fixed-width Metadata record.
type Sorter struct {
	opts Options
	err  errors.Once

	recs []Metadata
	ch   chan []Metadata
	wg   sync.WaitGroup

	mu    sync.Mutex
	paths []string
}

// NewSorter creates a Sorter that spills batches under opts.TmpDir.
func NewSorter(opts Options) *Sorter {
	opts = opts.withDefaults()
	s := &Sorter{
		opts: opts,
		ch:   make(chan []Metadata, opts.Parallelism),
	}
	for i := 0; i < opts.Parallelism; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for batch := range s.ch {
				path, err := writeSpill(batch, s.opts.TmpDir)
				if err != nil {
					s.err.Set(err)
					continue
				}
				s.mu.Lock()
				s.paths = append(s.paths, path)
				s.mu.Unlock()
			}
		}()
	}
	return s
}

// Add appends one Metadata record to the current batch, flushing the batch
// to the background sorters once it reaches Options.BatchSize.
func (s *Sorter) Add(m Metadata) {
	s.recs = append(s.recs, m)
	if len(s.recs) >= s.opts.BatchSize {
		s.flush()
	}
}

func (s *Sorter) flush() {
	if len(s.recs) == 0 {
		return
	}
	s.ch <- s.recs
	s.recs = nil
}

// Close flushes any partial final batch, waits for all background sorts to
// finish, and returns the list of spill file paths in no particular order.
// The caller is responsible for merging them (see NewMerger) and for
// removing them once done; Close itself does not clean up on error so that
// the caller's temp-directory teardown can remove whatever was produced.
func (s *Sorter) Close() ([]string, error) {
	s.flush()
	close(s.ch)
	s.wg.Wait()
	if err := s.err.Err(); err != nil {
		return s.paths, err
	}
	return s.paths, nil
}
