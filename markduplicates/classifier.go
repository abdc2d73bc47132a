package markduplicates

import "github.com/yukaiquan/rmdups/sortspill"

// peSecondEnds is the set of group-key tuples that host the right end of at
// least one resolved PE pair. It is populated by the pair resolver and
// consulted read-only by the classifier.
type peSecondEnds map[groupKey]struct{}

func (s peSecondEnds) insert(k groupKey) { s[k] = struct{}{} }
func (s peSecondEnds) has(k groupKey) bool {
	_, ok := s[k]
	return ok
}

// groupKey is the 4-tuple (lib_id, ref_id1, pos1, rev1) that equi-positional
// Metadata entries are grouped by.
type groupKey struct {
	libID  int32
	refID  int32
	pos    int32
	strand uint8
}

// groupTallies accumulates the classifier's informational counters. They do
// not affect the duplicate-index set and exist purely for diagnostics.
type groupTallies struct {
	orphan int
	pe     int
	seOnly int
}

func (t *groupTallies) add(o groupTallies) {
	t.orphan += o.orphan
	t.pe += o.pe
	t.seOnly += o.seOnly
}

// classifier assembles runs of Metadata sharing a group key and applies the
// Sambamba-faithful duplicate rule to each run, populating a dupIndex.
type classifier struct {
	dups    *dupIndex
	seconds peSecondEnds

	group   []sortspill.Metadata
	tallies groupTallies
}

func newClassifier(dups *dupIndex, seconds peSecondEnds) *classifier {
	return &classifier{dups: dups, seconds: seconds}
}

// add feeds one Metadata entry from the merged stream into the classifier.
// The caller must feed entries in the total order of sortspill.Metadata.Less;
// add flushes the current group whenever m's group key differs from the
// buffered group's.
func (c *classifier) add(m sortspill.Metadata) error {
	if len(c.group) > 0 {
		first := c.group[0]
		if m.LibID != first.LibID || m.RefID1 != first.RefID1 || m.Pos1 != first.Pos1 || m.Rev1 != first.Rev1 {
			if err := c.flush(); err != nil {
				return err
			}
		}
	}
	c.group = append(c.group, m)
	return nil
}

// finish flushes any remaining buffered group and returns the accumulated
// tallies.
func (c *classifier) finish() (groupTallies, error) {
	if err := c.flush(); err != nil {
		return groupTallies{}, err
	}
	return c.tallies, nil
}

func (c *classifier) flush() error {
	if len(c.group) == 0 {
		return nil
	}
	t, err := identifyDups(c.group, c.dups, c.seconds)
	if err != nil {
		return err
	}
	c.tallies.add(t)
	c.group = c.group[:0]
	return nil
}

// identifyDups implements the Sambamba-faithful duplicate rule for one
// equi-key group: Rule 1 marks fragments as duplicates either because a
// paired read is present at the same position (orphans) or because multiple
// fragments compete for the same position with no paired read in sight
// (se_only); Rule 2 marks all but the best-scoring PE pair within each
// distinct mate-coordinate run.
func identifyDups(group []sortspill.Metadata, dups *dupIndex, seconds peSecondEnds) (groupTallies, error) {
	var t groupTallies
	if len(group) == 0 {
		return t, nil
	}

	var pes, ses []sortspill.Metadata
	for _, m := range group {
		if m.RefID2 != -1 {
			pes = append(pes, m)
		} else {
			ses = append(ses, m)
		}
	}

	var frag, mates []sortspill.Metadata
	for _, m := range ses {
		if m.PairedEnd == 0 {
			frag = append(frag, m)
		} else {
			mates = append(mates, m)
		}
	}

	first := group[0]
	key := groupKey{first.LibID, first.RefID1, first.Pos1, first.Rev1}
	kPos := 0
	if seconds.has(key) {
		kPos = 1
	}

	total := len(frag) + len(mates) + len(pes) + kPos
	seenFragment := len(frag) > 0
	seenPairedRead := len(mates) > 0 || len(pes) > 0 || kPos > 0

	// Rule 1: orphan / fragment dedup.
	if total >= 2 && seenFragment {
		if seenPairedRead {
			for _, se := range frag {
				if err := dups.mark(se.Idx1); err != nil {
					return t, err
				}
				t.orphan++
			}
		} else if len(frag) >= 2 {
			best := 0
			for i := 1; i < len(frag); i++ {
				if frag[i].Score > frag[best].Score {
					best = i
				}
			}
			for i := range frag {
				if i == best {
					continue
				}
				if err := dups.mark(frag[i].Idx1); err != nil {
					return t, err
				}
				t.seOnly++
			}
		}
	}

	// Rule 2: PE internal dedup. The group arrives sorted by the full
	// Metadata order, so entries sharing (ref_id2, pos2, rev2) are already
	// contiguous within pes.
	i := 0
	for i < len(pes) {
		j := i + 1
		best := i
		for j < len(pes) &&
			pes[i].Rev2 == pes[j].Rev2 &&
			pes[i].RefID2 == pes[j].RefID2 &&
			pes[i].Pos2 == pes[j].Pos2 {
			if pes[j].Score >= pes[best].Score {
				best = j
			}
			j++
		}
		for k := i; k < j; k++ {
			if k == best {
				continue
			}
			if err := dups.mark(pes[k].Idx1); err != nil {
				return t, err
			}
			if err := dups.mark(pes[k].Idx2); err != nil {
				return t, err
			}
			t.pe += 2
		}
		i = j
	}

	return t, nil
}
