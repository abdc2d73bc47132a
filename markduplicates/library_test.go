package markduplicates

import (
	"testing"
	"time"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
)

func newTestHeaderWithGroups(t *testing.T, libs ...string) *sam.Header {
	t.Helper()
	h, err := sam.NewHeader(nil, nil)
	assert.NoError(t, err)
	for i, lib := range libs {
		rg, err := sam.NewReadGroup("rg"+string(rune('A'+i)), "", "", lib, "", "", "", "", "", "", time.Time{}, 0)
		assert.NoError(t, err)
		assert.NoError(t, h.AddReadGroup(rg))
	}
	return h
}

func TestLibraryTableAssignsDenseIDsInHeaderOrder(t *testing.T) {
	h := newTestHeaderWithGroups(t, "LibA", "LibB", "LibA")
	lt := newLibraryTable(h)

	recA := &sam.Record{AuxFields: sam.AuxFields{mustAux(t, "RG", "rgA")}}
	recB := &sam.Record{AuxFields: sam.AuxFields{mustAux(t, "RG", "rgB")}}
	recC := &sam.Record{AuxFields: sam.AuxFields{mustAux(t, "RG", "rgC")}}

	assert.Equal(t, int32(0), lt.libraryID(recA))
	assert.Equal(t, int32(1), lt.libraryID(recB))
	assert.Equal(t, int32(0), lt.libraryID(recC)) // shares LibA's ID with rgA
}

func TestLibraryTableMissingRGDefaultsToZero(t *testing.T) {
	h := newTestHeaderWithGroups(t, "LibA", "LibB")
	lt := newLibraryTable(h)

	noTag := &sam.Record{}
	assert.Equal(t, int32(0), lt.libraryID(noTag))

	unknownTag := &sam.Record{AuxFields: sam.AuxFields{mustAux(t, "RG", "does-not-exist")}}
	assert.Equal(t, int32(0), lt.libraryID(unknownTag))
}

func TestLibraryTableNoLibraryTagFoldsToUnknown(t *testing.T) {
	h := newTestHeaderWithGroups(t, "") // a read group with no LB tag
	lt := newLibraryTable(h)
	rec := &sam.Record{AuxFields: sam.AuxFields{mustAux(t, "RG", "rgA")}}
	assert.Equal(t, int32(0), lt.libraryID(rec))
}

func mustAux(t *testing.T, tag, val string) sam.Aux {
	t.Helper()
	aux, err := sam.NewAux(sam.NewTag(tag), val)
	assert.NoError(t, err)
	return aux
}
