package sortspill

import "runtime"

// DefaultBatchSize is the default number of Metadata records kept in memory
// before a batch is sorted and spilled, matching spec.md §6's
// --batch-size default.
const DefaultBatchSize = 2_000_000

// Options controls the External Sorter's batching, parallelism and spill
// location.
type Options struct {
	// BatchSize is the number of records accumulated before an in-memory
	// sort + spill. <= 0 selects DefaultBatchSize.
	BatchSize int

	// Parallelism bounds the number of batches sorted concurrently in the
	// background worker pool. <= 0 selects runtime.GOMAXPROCS(0), falling
	// back to 4 if that reports a value <= 0.
	Parallelism int

	// TmpDir is the parent directory spill files are created under. ""
	// selects the OS default temp directory.
	TmpDir string
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
		if o.Parallelism <= 0 {
			o.Parallelism = 4
		}
	}
	return o
}
