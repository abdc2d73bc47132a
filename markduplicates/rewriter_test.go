package markduplicates

import (
	"bytes"
	"io"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
)

func newTestHeader(t *testing.T) *sam.Header {
	t.Helper()
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	h, err := sam.NewHeader(nil, []*sam.Reference{ref})
	assert.NoError(t, err)
	return h
}

func encodeBAM(t *testing.T, h *sam.Header, recs []*sam.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, h, 1)
	assert.NoError(t, err)
	for _, r := range recs {
		assert.NoError(t, w.Write(r))
	}
	assert.NoError(t, w.Close())
	return buf.Bytes()
}

func decodeBAM(t *testing.T, raw []byte) (*sam.Header, []*sam.Record) {
	t.Helper()
	r, err := bam.NewReader(bytes.NewReader(raw), 1)
	assert.NoError(t, err)
	var recs []*sam.Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		recs = append(recs, rec)
	}
	return r.Header(), recs
}

func TestRewriteTogglesOnlyFlagBit(t *testing.T) {
	h := newTestHeader(t)
	ref := h.Refs()[0]

	recs := []*sam.Record{
		{Name: "a", Ref: ref, Pos: 10, Flags: sam.Paired},
		{Name: "b", Ref: ref, Pos: 20, Flags: sam.Paired | sam.Duplicate}, // already set; must clear if not in dup set
		{Name: "c", Ref: ref, Pos: 30, Flags: sam.Paired | sam.Secondary}, // special, passed through
	}
	raw := encodeBAM(t, h, recs)

	r, err := bam.NewReader(bytes.NewReader(raw), 1)
	assert.NoError(t, err)
	var out bytes.Buffer
	w, err := bam.NewWriter(&out, r.Header(), 1)
	assert.NoError(t, err)

	dups := newDupIndex()
	assert.NoError(t, dups.mark(0))
	assert.NoError(t, dups.mark(2)) // secondary record "c" is marked but must stay unflagged

	stats, err := rewrite(r, w, dups, false)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	assert.Equal(t, uint64(3), stats.RecordsWritten)
	assert.Equal(t, uint64(0), stats.RecordsDropped)

	_, decoded := decodeBAM(t, out.Bytes())
	assert.Len(t, decoded, 3)
	assert.NotEqual(t, sam.Flags(0), decoded[0].Flags&sam.Duplicate, "idx 0 marked -> flag set")
	assert.Equal(t, sam.Flags(0), decoded[1].Flags&sam.Duplicate, "idx 1 not marked -> flag cleared")
	assert.NotEqual(t, sam.Flags(0), decoded[2].Flags&sam.Secondary, "secondary pass-through untouched")
	assert.Equal(t, sam.Flags(0), decoded[2].Flags&sam.Duplicate, "secondary record never gets DUPLICATE set even if marked")
}

func TestRewriteRemoveDuplicatesDropsMarkedRecords(t *testing.T) {
	h := newTestHeader(t)
	ref := h.Refs()[0]

	recs := []*sam.Record{
		{Name: "a", Ref: ref, Pos: 10, Flags: sam.Paired},
		{Name: "b", Ref: ref, Pos: 20, Flags: sam.Paired},
	}
	raw := encodeBAM(t, h, recs)

	r, err := bam.NewReader(bytes.NewReader(raw), 1)
	assert.NoError(t, err)

	var out bytes.Buffer
	w, err := bam.NewWriter(&out, r.Header(), 1)
	assert.NoError(t, err)

	dups := newDupIndex()
	assert.NoError(t, dups.mark(1))

	stats, err := rewrite(r, w, dups, true)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	assert.Equal(t, uint64(1), stats.RecordsWritten)
	assert.Equal(t, uint64(1), stats.RecordsDropped)

	_, decoded := decodeBAM(t, out.Bytes())
	assert.Len(t, decoded, 1)
	assert.Equal(t, "a", decoded[0].Name)
}

func TestRewriteLeavesSecondarySupplementaryUntouched(t *testing.T) {
	h := newTestHeader(t)
	ref := h.Refs()[0]

	recs := []*sam.Record{
		{Name: "a", Ref: ref, Pos: 10, Flags: sam.Paired | sam.Secondary},
		{Name: "b", Ref: ref, Pos: 20, Flags: sam.Paired | sam.Supplementary},
	}
	raw := encodeBAM(t, h, recs)

	r, err := bam.NewReader(bytes.NewReader(raw), 1)
	assert.NoError(t, err)
	var out bytes.Buffer
	w, err := bam.NewWriter(&out, r.Header(), 1)
	assert.NoError(t, err)

	dups := newDupIndex()
	assert.NoError(t, dups.mark(0)) // index 0 marked, but record is secondary -> must not be flagged or dropped
	assert.NoError(t, dups.mark(1)) // index 1 marked, but record is supplementary -> same

	stats, err := rewrite(r, w, dups, true)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.Equal(t, uint64(2), stats.RecordsWritten)
	assert.Equal(t, uint64(0), stats.RecordsDropped)

	_, decoded := decodeBAM(t, out.Bytes())
	assert.Len(t, decoded, 2)
	for _, rec := range decoded {
		assert.Equal(t, sam.Flags(0), rec.Flags&sam.Duplicate)
	}
}
