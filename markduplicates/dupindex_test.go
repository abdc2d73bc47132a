package markduplicates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDupIndexMarkAndContains(t *testing.T) {
	d := newDupIndex()
	assert.False(t, d.contains(5))
	assert.NoError(t, d.mark(5))
	assert.True(t, d.contains(5))
	assert.False(t, d.contains(6))
	assert.Equal(t, uint64(1), d.count())

	assert.NoError(t, d.mark(5)) // idempotent
	assert.Equal(t, uint64(1), d.count())
}

func TestDupIndexRejectsOversizedIndex(t *testing.T) {
	d := newDupIndex()
	err := d.mark(uint64(math.MaxUint32) + 1)
	assert.Error(t, err)
	assert.False(t, d.contains(uint64(math.MaxUint32)+1))
}
