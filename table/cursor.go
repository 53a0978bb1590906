package table

import "bytes"

// Cursor iterates over the live records of a table one at a time, in the
// same order as Scan. It holds one page in memory; writes to that page made
// after it was loaded are not seen.
type Cursor struct {
	m    *Manager
	page uint32
	leaf Leaf
	slot int
	hops uint32

	id  RecordID
	rec []byte
	err error
}

// Cursor returns a cursor positioned before the first record of the table
// rooted at root.
func (m *Manager) Cursor(root uint32) *Cursor {
	c := &Cursor{m: m, page: root}
	c.err = m.checkRoot(root)
	return c
}

// Next advances to the next live record. It returns false at the end of the
// chain or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	for {
		if c.leaf == nil {
			if c.page == 0 {
				return false
			}
			c.hops++
			if c.err = c.m.checkHops(c.hops); c.err != nil {
				return false
			}
			c.leaf, c.err = c.m.loadLeaf(c.page)
			if c.err != nil {
				return false
			}
			c.slot = 0
		}
		for ; c.slot < c.leaf.Capacity(); c.slot++ {
			if !c.leaf.IsSlotUsed(c.slot) {
				continue
			}
			c.id, c.err = NewRecordID(c.page, uint16(c.slot))
			if c.err != nil {
				return false
			}
			c.rec = c.leaf.Slot(c.slot)
			c.slot++
			return true
		}
		c.page = c.leaf.NextPage()
		c.leaf = nil
	}
}

// ID returns the id of the current record.
func (c *Cursor) ID() RecordID {
	return c.id
}

// Record returns a copy of the current record.
func (c *Cursor) Record() []byte {
	return bytes.Clone(c.rec)
}

func (c *Cursor) Err() error {
	return c.err
}
