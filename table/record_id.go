package table

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxRecordPage is the highest page number a RecordID can address.
const MaxRecordPage = 0xFFFF

// RecordID addresses a record by position: the page number in the high 16
// bits and the slot index in the low 16 bits. A slot that is freed and
// claimed again yields the same ID.
type RecordID uint32

// NewRecordID packs a page number and slot index.
func NewRecordID(page uint32, slot uint16) (RecordID, error) {
	if page > MaxRecordPage {
		return 0, errors.Wrapf(ErrFull, "page %d is beyond record id range", page)
	}
	return RecordID(page<<16 | uint32(slot)), nil
}

func (id RecordID) Page() uint32 {
	return uint32(id) >> 16
}

func (id RecordID) Slot() uint16 {
	return uint16(id)
}

func (id RecordID) String() string {
	return fmt.Sprintf("%d:%d", id.Page(), id.Slot())
}
