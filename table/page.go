package table

import (
	"encoding/binary"
	"math/bits"

	"github.com/aita/minidb/pager"
	"github.com/pkg/errors"
)

const (
	PageSize   = pager.PageSize
	HeaderSize = 24
	// RecordSize is the only record size this version stores.
	RecordSize = 128
	// KindLeaf marks a page holding records.
	KindLeaf = 1
)

const (
	hdrKindOff       = 0
	hdrRecordSizeOff = 2
	hdrCapacityOff   = 4
	hdrUsedCountOff  = 6
	hdrNextPageOff   = 8
	hdrReservedOff   = 12
)

// CapacityFor returns how many records of recordSize fit on a page next to
// the header and the slot bitmap.
func CapacityFor(recordSize int) int {
	if recordSize <= 0 || recordSize > PageSize-HeaderSize {
		return 0
	}
	for c := (PageSize - HeaderSize) / recordSize; c > 0; c-- {
		if HeaderSize+bitmapSize(c)+c*recordSize <= PageSize {
			return c
		}
	}
	return 0
}

func bitmapSize(capacity int) int {
	return (capacity + 7) / 8
}

// Leaf is a page buffer interpreted as a leaf page: a 24 byte header, the
// slot bitmap (LSB first, 1 = used) and then capacity record slots.
type Leaf []byte

// Init formats l as an empty leaf for records of recordSize bytes.
func (l Leaf) Init(recordSize int) error {
	if recordSize != RecordSize {
		return errors.Wrapf(ErrInvalidArgument, "record size %d", recordSize)
	}
	if len(l) != PageSize {
		return errors.Wrapf(ErrInvalidArgument, "page buffer is %d bytes", len(l))
	}
	clear(l)
	capacity := CapacityFor(recordSize)
	if capacity == 0 {
		return errors.Wrapf(ErrLayout, "no room for records of %d bytes", recordSize)
	}
	binary.LittleEndian.PutUint16(l[hdrKindOff:], KindLeaf)
	binary.LittleEndian.PutUint16(l[hdrRecordSizeOff:], uint16(recordSize))
	binary.LittleEndian.PutUint16(l[hdrCapacityOff:], uint16(capacity))
	return nil
}

func (l Leaf) Kind() int {
	return int(binary.LittleEndian.Uint16(l[hdrKindOff:]))
}

func (l Leaf) RecordSize() int {
	return int(binary.LittleEndian.Uint16(l[hdrRecordSizeOff:]))
}

func (l Leaf) Capacity() int {
	return int(binary.LittleEndian.Uint16(l[hdrCapacityOff:]))
}

func (l Leaf) UsedCount() int {
	return int(binary.LittleEndian.Uint16(l[hdrUsedCountOff:]))
}

func (l Leaf) setUsedCount(n int) {
	binary.LittleEndian.PutUint16(l[hdrUsedCountOff:], uint16(n))
}

// NextPage returns the successor in the chain, 0 at the tail.
func (l Leaf) NextPage() uint32 {
	return binary.LittleEndian.Uint32(l[hdrNextPageOff:])
}

func (l Leaf) SetNextPage(no uint32) {
	binary.LittleEndian.PutUint32(l[hdrNextPageOff:], no)
}

// bitmap is clamped to the buffer so a corrupt capacity cannot index past
// the page.
func (l Leaf) bitmap() []byte {
	return l[HeaderSize:min(HeaderSize+bitmapSize(l.Capacity()), len(l))]
}

func (l Leaf) dataOffset() int {
	return HeaderSize + bitmapSize(l.Capacity())
}

// Validate checks every invariant of the leaf layout.
func (l Leaf) Validate() error {
	if len(l) != PageSize {
		return errors.Wrapf(ErrLayout, "page buffer is %d bytes", len(l))
	}
	if kind := l.Kind(); kind != KindLeaf {
		return errors.Wrapf(ErrBadKind, "kind %d", kind)
	}
	recordSize := l.RecordSize()
	if recordSize != RecordSize {
		return errors.Wrapf(ErrLayout, "record size %d", recordSize)
	}
	capacity := l.Capacity()
	if want := CapacityFor(recordSize); capacity == 0 || capacity != want {
		return errors.Wrapf(ErrLayout, "capacity %d, expected %d", capacity, want)
	}
	if HeaderSize+bitmapSize(capacity)+capacity*recordSize > PageSize {
		return errors.Wrapf(ErrLayout, "%d slots of %d bytes overflow the page", capacity, recordSize)
	}
	for _, b := range l[hdrReservedOff:HeaderSize] {
		if b != 0 {
			return errors.Wrap(ErrLayout, "reserved header bytes are not zero")
		}
	}
	used := l.UsedCount()
	if used > capacity {
		return errors.Wrapf(ErrLayout, "used count %d exceeds capacity %d", used, capacity)
	}

	bm := l.bitmap()
	if rem := capacity % 8; rem != 0 {
		if tail := bm[len(bm)-1] &^ byte(1<<rem-1); tail != 0 {
			return errors.Wrapf(ErrBitmap, "bits set past capacity %d", capacity)
		}
	}
	set := 0
	for _, b := range bm {
		set += bits.OnesCount8(b)
	}
	if set != used {
		return errors.Wrapf(ErrBitmap, "%d bits set, used count %d", set, used)
	}
	return nil
}

// FindFreeSlot returns the lowest free slot index.
func (l Leaf) FindFreeSlot() (int, bool) {
	capacity := l.Capacity()
	if l.UsedCount() >= capacity {
		return 0, false
	}
	for i, b := range l.bitmap() {
		if b == 0xFF {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			slot := i*8 + bit
			if slot >= capacity {
				return 0, false
			}
			if b&(1<<bit) == 0 {
				return slot, true
			}
		}
	}
	return 0, false
}

func (l Leaf) IsSlotUsed(slot int) bool {
	if slot < 0 || slot >= l.Capacity() || HeaderSize+slot/8 >= len(l) {
		return false
	}
	return l[HeaderSize+slot/8]&(1<<(slot%8)) != 0
}

// MarkUsed sets the slot's bit and bumps the used count.
func (l Leaf) MarkUsed(slot int) error {
	capacity, used := l.Capacity(), l.UsedCount()
	if used > capacity {
		return errors.Wrapf(ErrLayout, "used count %d exceeds capacity %d", used, capacity)
	}
	if used == capacity {
		return errors.Wrapf(ErrFull, "all %d slots used", capacity)
	}
	if slot < 0 || slot >= capacity {
		return errors.Wrapf(ErrInvalidArgument, "slot %d, capacity %d", slot, capacity)
	}
	if HeaderSize+slot/8 >= len(l) {
		return errors.Wrapf(ErrLayout, "slot %d lies outside the page", slot)
	}
	if l.IsSlotUsed(slot) {
		return errors.Wrapf(ErrInvalidArgument, "slot %d already used", slot)
	}
	l[HeaderSize+slot/8] |= 1 << (slot % 8)
	l.setUsedCount(used + 1)
	return nil
}

// MarkFree clears the slot's bit and drops the used count.
func (l Leaf) MarkFree(slot int) error {
	capacity, used := l.Capacity(), l.UsedCount()
	if used > capacity {
		return errors.Wrapf(ErrLayout, "used count %d exceeds capacity %d", used, capacity)
	}
	if slot < 0 || slot >= capacity {
		return errors.Wrapf(ErrInvalidArgument, "slot %d, capacity %d", slot, capacity)
	}
	if HeaderSize+slot/8 >= len(l) {
		return errors.Wrapf(ErrLayout, "slot %d lies outside the page", slot)
	}
	if !l.IsSlotUsed(slot) {
		return errors.Wrapf(ErrInvalidArgument, "slot %d already free", slot)
	}
	if used == 0 {
		return errors.Wrapf(ErrInvalidArgument, "slot %d marked but used count is zero", slot)
	}
	l[HeaderSize+slot/8] &^= 1 << (slot % 8)
	l.setUsedCount(used - 1)
	return nil
}

// Slot returns the byte window of a slot, or nil when the index is out of
// range. Occupancy is not checked.
func (l Leaf) Slot(slot int) []byte {
	if slot < 0 || slot >= l.Capacity() {
		return nil
	}
	off := l.dataOffset() + slot*l.RecordSize()
	end := off + l.RecordSize()
	if end > len(l) {
		return nil
	}
	return l[off:end:end]
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
