// Command rmdups marks or removes PCR/optical duplicate alignment records in
// a BAM file, matching the record-for-record output of Sambamba's markdup
// for the same input.
//
// Usage: rmdups -i input.bam -o output.bam
package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/yukaiquan/rmdups/markduplicates"
)

var (
	inputFlag           = flag.String("input", "", "Input BAM path (required). Alias: -i.")
	inputShortFlag      = flag.String("i", "", "Alias for -input.")
	outputFlag          = flag.String("output", "", "Output BAM path (required). Alias: -o.")
	outputShortFlag     = flag.String("o", "", "Alias for -output.")
	removeDupsFlag      = flag.Bool("remove-duplicates", false, "Drop duplicate records instead of flagging them. Alias: -r.")
	removeDupsShortFlag = flag.Bool("r", false, "Alias for -remove-duplicates.")
	threadsFlag         = flag.Int("threads", 0, "Worker-pool size for spill-batch sorting; 0 selects detected hardware parallelism. Alias: -t.")
	threadsShortFlag    = flag.Int("t", 0, "Alias for -threads.")
	batchSizeFlag       = flag.Int("batch-size", 0, "Metadata records per spill batch; 0 selects the default of 2,000,000.")
	tmpDirFlag          = flag.String("tmp-dir", "", "Parent directory for spill files; empty selects the OS default temp directory.")
	singleThreadedFlag  = flag.Bool("single-threaded", false, "Force worker-pool size to 1 regardless of -threads.")
)

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage: rmdups -i input.bam -o output.bam [flags]

Marks (or, with -remove-duplicates, drops) PCR/optical duplicate alignment
records in a coordinate- or read-name-adjacent BAM file, using a two-pass
external-sort pipeline to scale to inputs far larger than memory.

`)
		flag.PrintDefaults()
	}
	shutdown := grail.Init()
	defer shutdown()

	flag.Parse()

	opts := markduplicates.Opts{
		Input:            firstNonEmpty(*inputFlag, *inputShortFlag),
		Output:           firstNonEmpty(*outputFlag, *outputShortFlag),
		RemoveDuplicates: *removeDupsFlag || *removeDupsShortFlag,
		Threads:          firstNonZero(*threadsFlag, *threadsShortFlag),
		BatchSize:        *batchSizeFlag,
		TmpDir:           *tmpDirFlag,
		SingleThreaded:   *singleThreadedFlag,
	}
	if opts.Input == "" || opts.Output == "" {
		flag.Usage()
		os.Exit(1)
	}

	log.Printf("rmdups: using %d threads%s", effectiveThreads(opts), singleThreadedNote(opts))

	if _, err := markduplicates.Run(opts); err != nil {
		log.Panicf("%v", err)
	}
}

func effectiveThreads(opts markduplicates.Opts) int {
	if opts.SingleThreaded {
		return 1
	}
	if opts.Threads > 0 {
		return opts.Threads
	}
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 4
}

func singleThreadedNote(opts markduplicates.Opts) string {
	if opts.SingleThreaded {
		return " (single-threaded mode)"
	}
	return ""
}
