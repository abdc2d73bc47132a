package markduplicates

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
)

func TestFivePrimePositionForwardSubtractsLeadingClip(t *testing.T) {
	rec := &sam.Record{
		Pos: 100,
		Cigar: sam.Cigar{
			sam.NewCigarOp(sam.CigarSoftClipped, 5),
			sam.NewCigarOp(sam.CigarMatch, 50),
		},
	}
	assert.Equal(t, 95, fivePrimePosition(rec))
}

func TestFivePrimePositionForwardNoClip(t *testing.T) {
	rec := &sam.Record{
		Pos:   100,
		Cigar: sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 50)},
	}
	assert.Equal(t, 100, fivePrimePosition(rec))
}

func TestFivePrimePositionReverseAddsReferenceSpanAndTrailingClip(t *testing.T) {
	rec := &sam.Record{
		Flags: sam.Reverse,
		Pos:   100,
		Cigar: sam.Cigar{
			sam.NewCigarOp(sam.CigarSoftClipped, 3), // trailing in read order, leading in CIGAR
			sam.NewCigarOp(sam.CigarMatch, 50),
			sam.NewCigarOp(sam.CigarSoftClipped, 5), // this is the "trailing" clip per spec (tail of CIGAR)
		},
	}
	// refSpan = 50 (match consumes reference); trailing clip (tail op) = 5.
	assert.Equal(t, 100+50+5, fivePrimePosition(rec))
}

func TestFivePrimePositionHardClipCountsLikeSoftClip(t *testing.T) {
	rec := &sam.Record{
		Pos: 100,
		Cigar: sam.Cigar{
			sam.NewCigarOp(sam.CigarHardClipped, 2),
			sam.NewCigarOp(sam.CigarSoftClipped, 3),
			sam.NewCigarOp(sam.CigarMatch, 50),
		},
	}
	assert.Equal(t, 95, fivePrimePosition(rec))
}

func TestDupScoreSumsQualitiesAtOrAboveThreshold(t *testing.T) {
	rec := &sam.Record{Qual: []byte{10, 15, 20, 14, 30}}
	assert.Equal(t, uint32(15+20+30), dupScore(rec))
}

func TestDupScoreMissingQualIsZero(t *testing.T) {
	rec := &sam.Record{}
	assert.Equal(t, uint32(0), dupScore(rec))
}

func TestRefIDUnmappedIsMinusOne(t *testing.T) {
	rec := &sam.Record{}
	assert.Equal(t, int32(-1), refID(rec))
}

func TestReverseFlag(t *testing.T) {
	assert.Equal(t, uint8(1), reverseFlag(&sam.Record{Flags: sam.Reverse}))
	assert.Equal(t, uint8(0), reverseFlag(&sam.Record{}))
}
