package markduplicates

import (
	"runtime"

	"github.com/yukaiquan/rmdups/sortspill"
)

// Opts controls how Run marks or removes duplicates in a BAM file. It is
// populated from the command-line flags of cmd/rmdups, but is independent of
// flag parsing so it can be driven from tests directly.
type Opts struct {
	// Input is the path to the coordinate- or read-name-adjacent BAM input.
	// Run opens it twice, once for each pass, so it must be re-readable;
	// "-" is not treated as stdin.
	Input string

	// Output is the path the marked (or filtered) BAM is written to. "-"
	// writes to stdout.
	Output string

	// RemoveDuplicates drops duplicate records from the output entirely
	// instead of setting their DUPLICATE flag.
	RemoveDuplicates bool

	// Threads bounds the parallelism of the background batch sorters. <= 0
	// selects runtime.GOMAXPROCS(0).
	Threads int

	// SingleThreaded forces Threads to 1, overriding Threads.
	SingleThreaded bool

	// BatchSize is the number of Metadata records accumulated in memory
	// before a batch is sorted and spilled to disk. <= 0 selects
	// sortspill.DefaultBatchSize.
	BatchSize int

	// TmpDir is the parent directory under which a scoped temporary
	// directory is created for spill files. "" selects the OS default.
	TmpDir string
}

func (o Opts) effectiveThreads() int {
	if o.SingleThreaded {
		return 1
	}
	if o.Threads > 0 {
		return o.Threads
	}
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 4
}

func (o Opts) sortOptions() sortspill.Options {
	return sortspill.Options{
		BatchSize:   o.BatchSize,
		Parallelism: o.effectiveThreads(),
		TmpDir:      o.TmpDir,
	}
}
