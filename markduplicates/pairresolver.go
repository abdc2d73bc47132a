package markduplicates

import "github.com/yukaiquan/rmdups/sortspill"

// pendingMate is the first-seen half of a read pair, held in the pending-pair
// map until its mate arrives (or end-of-input sweeps it up as residue).
type pendingMate struct {
	libID int32
	refID int32
	pos   int32
	rev   uint8
	score uint32
	idx   uint64
}

// pairResolverStats mirrors the first pass's "sorted N end pairs / M single
// ends (K unmatched)" reporting.
type pairResolverStats struct {
	PECount          uint64
	SECount          uint64
	UnmatchedPECount uint64
}

// pairResolver performs the first-pass join of mates by read name. It emits
// sortspill.Metadata to a sink (normally a sortspill.Sorter) and records every
// group-key position that hosts a PE pair's right end.
type pairResolver struct {
	sink    func(sortspill.Metadata)
	pending map[string]pendingMate
	seconds peSecondEnds
	stats   pairResolverStats
}

func newPairResolver(sink func(sortspill.Metadata), seconds peSecondEnds) *pairResolver {
	return &pairResolver{
		sink:    sink,
		pending: make(map[string]pendingMate),
		seconds: seconds,
	}
}

// addSegmentedMapped resolves one end of a read pair whose mate is itself
// mapped (segmented ∧ ¬mate-unmapped). name must be the read's query name.
func (p *pairResolver) addSegmentedMapped(name string, libID, refID, pos int32, rev uint8, score uint32, idx uint64) {
	mate, ok := p.pending[name]
	if !ok {
		p.pending[name] = pendingMate{libID: libID, refID: refID, pos: pos, rev: rev, score: score, idx: idx}
		return
	}
	delete(p.pending, name)

	var r1, p1 int32
	var rev1 uint8
	var i1 uint64
	var r2, p2 int32
	var rev2 uint8
	var i2 uint64
	if refID < mate.refID || (refID == mate.refID && pos < mate.pos) {
		r1, p1, rev1, i1 = refID, pos, rev, idx
		r2, p2, rev2, i2 = mate.refID, mate.pos, mate.rev, mate.idx
	} else {
		r1, p1, rev1, i1 = mate.refID, mate.pos, mate.rev, mate.idx
		r2, p2, rev2, i2 = refID, pos, rev, idx
	}

	p.seconds.insert(groupKey{mate.libID, r2, p2, rev2})

	p.sink(sortspill.NewPair(mate.libID, r1, p1, rev1, r2, p2, rev2, score+mate.score, i1, i2))
	p.stats.PECount++
}

// addFragment emits an immediate fragment entry for a paired-but-mate-unmapped
// read, or a genuinely unpaired (non-segmented) read.
func (p *pairResolver) addFragment(libID, refID, pos int32, rev uint8, score uint32, idx uint64) {
	p.sink(sortspill.NewFragment(libID, refID, pos, rev, score, idx))
	p.stats.SECount++
}

// finish sweeps every mate still waiting in the pending-pair map and emits it
// as a residue fragment; its partner never arrived in the input. Per spec
// §4.3/§4.5, these residues are tagged paired_end=1 (they remain "mates" for
// classification purposes, distinguishing them from genuine fragments) even
// though they carry ref_id2=-1 like any other SE entry.
func (p *pairResolver) finish() pairResolverStats {
	for name, m := range p.pending {
		delete(p.pending, name)
		meta := sortspill.NewFragment(m.libID, m.refID, m.pos, m.rev, m.score, m.idx)
		meta.PairedEnd = 1
		p.sink(meta)
		p.stats.SECount++
		p.stats.UnmatchedPECount++
	}
	return p.stats
}
