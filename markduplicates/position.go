package markduplicates

import "github.com/biogo/hts/sam"

// minBaseQuality is the inclusive lower bound on a base's quality score for
// it to contribute to a read's duplicate-selection score.
const minBaseQuality = 15

// fivePrimePosition returns the unclipped 5' coordinate of rec's alignment:
// for a forward read this is the alignment start minus any leading soft/hard
// clip, and for a reverse read it is the alignment end plus any trailing
// soft/hard clip (trailing in reference order, which is the read's leading
// clip once sequenced 5'->3'). The result is only meaningful when rec is
// mapped; callers must check that separately.
func fivePrimePosition(rec *sam.Record) int {
	if rec.Flags&sam.Reverse == 0 {
		clipped := 0
		for _, op := range rec.Cigar {
			switch op.Type() {
			case sam.CigarSoftClipped, sam.CigarHardClipped:
				clipped += op.Len()
			default:
				return rec.Pos - clipped
			}
		}
		return rec.Pos - clipped
	}

	refSpan := 0
	for _, op := range rec.Cigar {
		refSpan += op.Len() * op.Type().Consumes().Reference
	}
	clippedEnd := 0
	for i := len(rec.Cigar) - 1; i >= 0; i-- {
		switch rec.Cigar[i].Type() {
		case sam.CigarSoftClipped, sam.CigarHardClipped:
			clippedEnd += rec.Cigar[i].Len()
		default:
			return rec.Pos + refSpan + clippedEnd
		}
	}
	return rec.Pos + refSpan + clippedEnd
}

// dupScore sums the Phred quality scores of bases at or above
// minBaseQuality, used to pick which copy of a duplicate set to keep.
func dupScore(rec *sam.Record) uint32 {
	var score uint32
	for _, q := range rec.Qual {
		if q >= minBaseQuality {
			score += uint32(q)
		}
	}
	return score
}

// refID returns rec.Ref's header index, or -1 if rec is unmapped.
func refID(rec *sam.Record) int32 {
	if rec.Ref == nil {
		return -1
	}
	return int32(rec.Ref.ID())
}

// reverseFlag returns 1 if rec is mapped to the reverse strand, else 0,
// matching the rev1/rev2 byte encoding used by sortspill.Metadata.
func reverseFlag(rec *sam.Record) uint8 {
	if rec.Flags&sam.Reverse != 0 {
		return 1
	}
	return 0
}
