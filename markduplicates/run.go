// Package markduplicates implements the Sambamba-consistent duplicate
// marking pipeline: a first pass that derives position metadata and resolves
// mate pairs, an external sort of that metadata, a group classifier that
// applies the duplicate rule, and a second pass that rewrites the BAM with
// the DUPLICATE flag toggled (or duplicate records dropped).
package markduplicates

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/yukaiquan/rmdups/sortspill"
)

// Stats summarizes one Run invocation, mirroring the progress counters the
// reference tool reports to stderr.
type Stats struct {
	PairResolver pairResolverStats
	Classifier   groupTallies
	Rewrite      rewriteStats
	Duplicates   uint64
}

// Run executes the full duplicate-marking pipeline described by opts.
func Run(opts Opts) (Stats, error) {
	var stats Stats
	totalStart := time.Now()

	ctx := vcontext.Background()

	tmpParent := opts.TmpDir
	if tmpParent == "" {
		tmpParent = os.TempDir()
	}
	scratchDir, err := os.MkdirTemp(tmpParent, "markdup_*")
	if err != nil {
		return stats, fmt.Errorf("markduplicates: creating scoped temp directory: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(scratchDir); rerr != nil {
			log.Error.Printf("failed to remove scoped temp directory %s: %v", scratchDir, rerr)
		}
	}()

	in, err := file.Open(ctx, opts.Input)
	if err != nil {
		return stats, fmt.Errorf("markduplicates: opening input %s: %w", opts.Input, err)
	}
	defer in.Close(ctx)

	reader, err := bam.NewReader(in.Reader(ctx), opts.effectiveThreads())
	if err != nil {
		return stats, fmt.Errorf("markduplicates: reading BAM header from %s: %w", opts.Input, err)
	}
	header := reader.Header()
	libs := newLibraryTable(header)

	log.Debug.Printf("using %d threads%s", opts.effectiveThreads(), singleThreadedSuffix(opts))
	log.Debug.Printf("finding positions of the duplicate reads in the file...")

	findStart := time.Now()
	sortOpts := opts.sortOptions()
	sortOpts.TmpDir = scratchDir
	sorter := sortspill.NewSorter(sortOpts)
	seconds := peSecondEnds{}
	resolver := newPairResolver(sorter.Add, seconds)

	var idx uint64
	for {
		rec, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return stats, fmt.Errorf("markduplicates: reading record %d from %s: %w", idx, opts.Input, rerr)
		}
		if err := processFirstPassRecord(rec, idx, libs, resolver); err != nil {
			return stats, err
		}
		idx++
	}

	resolverStats := resolver.finish()
	stats.PairResolver = resolverStats
	log.Debug.Printf("  sorted %d end pairs", resolverStats.PECount)
	log.Debug.Printf("     and %d single ends (among them %d unmatched pairs)",
		resolverStats.SECount, resolverStats.UnmatchedPECount)

	paths, err := sorter.Close()
	if err != nil {
		return stats, fmt.Errorf("markduplicates: spilling sorted batches: %w", err)
	}

	log.Debug.Printf("collecting indices of duplicate reads...")
	collectStart := time.Now()

	merger, err := sortspill.NewMerger(paths)
	if err != nil {
		return stats, fmt.Errorf("markduplicates: opening merge over %d spill files: %w", len(paths), err)
	}
	defer merger.Close()

	dups := newDupIndex()
	cl := newClassifier(dups, seconds)
	for {
		m, ok, merr := merger.Next()
		if merr != nil {
			return stats, fmt.Errorf("markduplicates: merging spill files: %w", merr)
		}
		if !ok {
			break
		}
		if err := cl.add(m); err != nil {
			return stats, err
		}
	}
	tallies, err := cl.finish()
	if err != nil {
		return stats, err
	}
	stats.Classifier = tallies
	stats.Duplicates = dups.count()

	log.Debug.Printf("  collecting indices of duplicate reads done in %v", time.Since(collectStart))
	log.Debug.Printf("  found %d duplicates", stats.Duplicates)
	log.Debug.Printf("  (orphan=%d, pe=%d, se_only=%d)", tallies.orphan, tallies.pe, tallies.seOnly)
	log.Debug.Printf("collected list of positions in %v", time.Since(findStart))

	log.Debug.Printf("marking duplicates...")
	writeStart := time.Now()

	in2, err := file.Open(ctx, opts.Input)
	if err != nil {
		return stats, fmt.Errorf("markduplicates: reopening input %s for rewrite: %w", opts.Input, err)
	}
	defer in2.Close(ctx)
	reader2, err := bam.NewReader(in2.Reader(ctx), opts.effectiveThreads())
	if err != nil {
		return stats, fmt.Errorf("markduplicates: re-reading BAM header from %s: %w", opts.Input, err)
	}

	out, err := file.Create(ctx, opts.Output)
	if err != nil {
		return stats, fmt.Errorf("markduplicates: creating output %s: %w", opts.Output, err)
	}
	defer func() {
		e := errors.Once{}
		e.Set(out.Close(ctx))
		if err := e.Err(); err != nil {
			log.Error.Printf("closing output %s: %v", opts.Output, err)
		}
	}()

	writer, err := bam.NewWriter(out.Writer(ctx), reader2.Header(), opts.effectiveThreads())
	if err != nil {
		return stats, fmt.Errorf("markduplicates: writing BAM header to %s: %w", opts.Output, err)
	}

	rwStats, err := rewrite(reader2, writer, dups, opts.RemoveDuplicates)
	if err != nil {
		return stats, err
	}
	stats.Rewrite = rwStats
	if err := writer.Close(); err != nil {
		return stats, fmt.Errorf("markduplicates: finalizing output %s: %w", opts.Output, err)
	}

	log.Debug.Printf("wrote output in %v", time.Since(writeStart))
	log.Debug.Printf("  wrote %d records (%d dropped)", rwStats.RecordsWritten, rwStats.RecordsDropped)
	log.Debug.Printf("done in %v", time.Since(totalStart))

	return stats, nil
}

// processFirstPassRecord classifies one record during the first pass,
// feeding the pair resolver per spec §4.3.
func processFirstPassRecord(rec *sam.Record, idx uint64, libs *libraryTable, resolver *pairResolver) error {
	if rec.Flags&(sam.Unmapped|sam.Secondary|sam.Supplementary) != 0 {
		return nil
	}

	libID := libs.libraryID(rec)
	pos := fivePrimePosition(rec)
	score := dupScore(rec)
	ref := refID(rec)
	rev := reverseFlag(rec)

	segmented := rec.Flags&sam.Paired != 0
	mateUnmapped := rec.Flags&sam.MateUnmapped != 0

	if segmented && !mateUnmapped {
		if len(rec.Name) == 0 {
			return fmt.Errorf("markduplicates: record %d has no query name", idx)
		}
		resolver.addSegmentedMapped(rec.Name, libID, ref, int32(pos), rev, score, idx)
		return nil
	}
	resolver.addFragment(libID, ref, int32(pos), rev, score, idx)
	return nil
}

func singleThreadedSuffix(opts Opts) string {
	if opts.SingleThreaded {
		return " (single-threaded mode)"
	}
	return ""
}
