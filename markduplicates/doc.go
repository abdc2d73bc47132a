/*Package markduplicates marks or removes PCR/optical duplicate alignment
records in a BAM file, reproducing Sambamba's markdup decision procedure
record-for-record.

Two reads are considered positional duplicates if their library, 5' reference
coordinate (after accounting for soft/hard clipping), and strand orientation
are all identical. Within a group of same-position reads, the read (or pair)
with the highest sum of base qualities ≥ 15 is kept; the rest are marked.

Pipeline.

The package runs a two-pass external-sort pipeline rather than holding the
whole file in memory:

 1. First pass: for every mapped, non-secondary, non-supplementary record,
    compute its 5' position and score, then resolve mate pairs by read name.
    Single-end reads, and paired reads whose mate is unmapped, are emitted
    immediately as fragment metadata. A pending-pair map holds the first-seen
    half of a still-open pair; on the second half arriving, a single PE
    metadata entry is emitted and the pair's positions are canonicalized so
    the lexicographically smaller end is "left". Metadata batches are handed
    to a background worker pool that sorts each batch and spills it,
    snappy-compressed, to the scoped temp directory.

 2. A k-way merge over the spill files reconstructs one globally ordered
    metadata stream without holding more than one record per spill file in
    memory at a time.

 3. The group classifier consumes that stream, bucketing contiguous runs that
    share (library, ref_id, pos, strand), and applies the duplicate rule: an
    orphan rule for fragments competing with paired reads at the same
    position, a fragment-only rule when no paired read is present, and a
    pair-internal rule that keeps the best-scoring pair among those sharing
    a mate coordinate. Marked record indices accumulate in a compressed
    bitmap.

 4. A second pass re-reads the input in its original order and writes it back
    out, toggling the DUPLICATE flag bit (0x400) on every non-special record
    according to the bitmap — or, in -remove-duplicates mode, dropping those
    records outright. Secondary and supplementary records always pass
    through unmodified.

Determinism.

Output depends only on input bytes and flags, never on thread count or batch
size: the merge re-establishes one total order regardless of how records were
batched, and within-group tie-breaking is fully specified (strict "greater
than" favoring the earliest fragment; "greater than or equal" favoring the
latest pair, matching upstream Sambamba behavior byte-for-byte).
*/
package markduplicates
