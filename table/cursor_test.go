package table

import (
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
)

func TestCursorMatchesScan(t *testing.T) {
	m, _ := newTable(t)
	ids := insertN(t, m, CapacityFor(RecordSize)+4)
	assert.NilError(t, m.Delete(ids[2]))
	assert.NilError(t, m.Delete(ids[len(ids)-1]))

	var scanned []RecordID
	assert.NilError(t, m.Scan(testRoot, func(id RecordID, rec []byte) error {
		scanned = append(scanned, id)
		return nil
	}))

	var walked []RecordID
	cur := m.Cursor(testRoot)
	for cur.Next() {
		walked = append(walked, cur.ID())
		rec, err := m.Get(cur.ID())
		assert.NilError(t, err)
		assert.DeepEqual(t, rec, cur.Record())
	}
	assert.NilError(t, cur.Err())
	assert.DeepEqual(t, scanned, walked)
	assert.Equal(t, len(ids)-2, len(walked))
}

func TestCursorRecordIsACopy(t *testing.T) {
	m, _ := newTable(t)
	insertN(t, m, 1)

	cur := m.Cursor(testRoot)
	assert.Assert(t, cur.Next())
	rec := cur.Record()
	rec[0] ^= 0xFF
	assert.DeepEqual(t, makeRecord(0), cur.Record())
	assert.Assert(t, !cur.Next())
	assert.NilError(t, cur.Err())
}

func TestCursorEmptyTable(t *testing.T) {
	m, _ := newTable(t)
	cur := m.Cursor(testRoot)
	assert.Assert(t, !cur.Next())
	assert.NilError(t, cur.Err())
}

func TestCursorReportsErrors(t *testing.T) {
	m, p := newTable(t)
	cur := m.Cursor(0)
	assert.Assert(t, !cur.Next())
	assert.Assert(t, errors.Is(cur.Err(), ErrInvalidArgument), "got %v", cur.Err())

	insertN(t, m, 1)
	rewritePage(t, p, testRoot, func(l Leaf) { l.SetNextPage(50) })
	cur = m.Cursor(testRoot)
	assert.Assert(t, !cur.Next())
	assert.Assert(t, errors.Is(cur.Err(), ErrLayout), "got %v", cur.Err())
}
