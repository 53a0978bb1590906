package table

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestDigest(t *testing.T) {
	a, _ := newTable(t)
	b, _ := newTable(t)
	insertN(t, a, 10)
	ids := insertN(t, b, 10)

	sumA, err := Digest(a, testRoot)
	assert.NilError(t, err)
	sumB, err := Digest(b, testRoot)
	assert.NilError(t, err)
	assert.Equal(t, sumA, sumB)

	assert.NilError(t, b.Update(ids[4], makeRecord(400)))
	changed, err := Digest(b, testRoot)
	assert.NilError(t, err)
	assert.Assert(t, changed != sumA)

	assert.NilError(t, b.Update(ids[4], makeRecord(4)))
	restored, err := Digest(b, testRoot)
	assert.NilError(t, err)
	assert.Equal(t, sumA, restored)
}

func TestDigestOfEmptyTable(t *testing.T) {
	m, _ := newTable(t)
	sum, err := Digest(m, testRoot)
	assert.NilError(t, err)
	assert.Assert(t, sum != [32]byte{})
}
