package markduplicates

import (
	"github.com/biogo/hts/sam"
)

// readGroupTag and libraryTag are the two-byte SAM aux tags this package
// needs from a read's @RG line; sam.Header keeps the equivalent tags
// unexported, so the pair is reconstructed here.
var (
	readGroupTag = sam.Tag{'R', 'G'}
	libraryTag   = sam.Tag{'L', 'B'}
)

const unknownLibrary = "unknown"

// libraryTable assigns a dense, zero-based integer ID to every distinct
// library (the @RG LB value) named in a BAM header, and resolves a record's
// read group back to that ID. A read group with no LB tag is folded into the
// "unknown" library. A record with a missing or unrecognized RG tag is
// assigned library ID 0, matching the reference implementation's
// unwrap_or(0) fallback; this is deliberate, not an oversight, see
// SPEC_FULL.md's Open Question decisions.
type libraryTable struct {
	idByName map[string]int32
	idByRG   map[string]int32
}

// newLibraryTable builds a libraryTable from a BAM/SAM header's read groups.
// Library IDs are assigned in header.RGs() order, so the table (and hence
// lib_id values persisted to spill files) is deterministic for a given
// input.
func newLibraryTable(header *sam.Header) *libraryTable {
	t := &libraryTable{
		idByName: make(map[string]int32),
		idByRG:   make(map[string]int32),
	}
	for _, rg := range header.RGs() {
		name := rg.Library()
		if name == "" {
			name = unknownLibrary
		}
		id, ok := t.idByName[name]
		if !ok {
			id = int32(len(t.idByName))
			t.idByName[name] = id
		}
		t.idByRG[rg.Name()] = id
	}
	return t
}

// libraryID returns the library ID for rec, defaulting to 0 when the record
// carries no RG tag, or the tag does not name a read group present in the
// table.
func (t *libraryTable) libraryID(rec *sam.Record) int32 {
	aux := rec.AuxFields.Get(readGroupTag)
	if aux == nil {
		return 0
	}
	name, ok := aux.Value().(string)
	if !ok {
		return 0
	}
	id, ok := t.idByRG[name]
	if !ok {
		return 0
	}
	return id
}
