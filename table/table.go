// Package table stores fixed-size records in chains of leaf pages.
//
// A table is identified by its root page. Each leaf links to the next
// through its header; records are addressed by RecordID.
package table

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PageStore is the page I/O a Manager needs. *pager.Pager and *pager.Cache
// both provide it.
type PageStore interface {
	PageSize() int
	PageCount() uint32
	ReadPage(no uint32, buf []byte) error
	WritePage(no uint32, buf []byte) error
	AllocatePage() (uint32, error)
}

// Manager runs table operations against a PageStore.
type Manager struct {
	store PageStore
	log   *zap.Logger
}

// NewManager returns a Manager over store, which must use PageSize pages.
func NewManager(store PageStore, opts ...Option) (*Manager, error) {
	if size := store.PageSize(); size != PageSize {
		return nil, errors.Wrapf(ErrInvalidArgument, "page size %d, need %d", size, PageSize)
	}
	m := &Manager{
		store: store,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create formats root as the first leaf of an empty table, allocating pages
// up to root as needed. It is a no-op on a page that already holds an empty,
// unchained leaf and refuses any other non-zero page with ErrInvalidArgument.
func (m *Manager) Create(root uint32) error {
	if root == 0 {
		return errors.Wrap(ErrInvalidArgument, "page 0 holds the file header")
	}
	if root > MaxRecordPage {
		return errors.Wrapf(ErrInvalidArgument, "root page %d is past the last addressable page %d", root, MaxRecordPage)
	}
	for root >= m.store.PageCount() {
		if _, err := m.store.AllocatePage(); err != nil {
			return errors.Wrapf(err, "allocate up to page %d", root)
		}
	}

	leaf, err := m.readLeaf(root)
	if err != nil {
		return err
	}
	if isZero(leaf) {
		if err := leaf.Init(RecordSize); err != nil {
			return err
		}
		if err := m.writeLeaf(root, leaf); err != nil {
			return err
		}
		m.log.Debug("created table", zap.Uint32("root", root), zap.Int("capacity", leaf.Capacity()))
		return nil
	}

	if err := leaf.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidArgument, "page %d is in use: %v", root, err)
	}
	if leaf.UsedCount() != 0 || leaf.NextPage() != 0 {
		return errors.Wrapf(ErrInvalidArgument, "page %d already holds table data", root)
	}
	return nil
}

// Insert stores rec in the first free slot along the chain from root,
// growing the chain by one page when every page is full.
func (m *Manager) Insert(root uint32, rec []byte) (RecordID, error) {
	if len(rec) != RecordSize {
		return 0, errors.Wrapf(ErrInvalidArgument, "record is %d bytes, need %d", len(rec), RecordSize)
	}
	if err := m.checkRoot(root); err != nil {
		return 0, err
	}

	no := root
	leaf, err := m.loadLeaf(no)
	if err != nil {
		return 0, err
	}
	for hops := uint32(1); ; hops++ {
		if leaf.UsedCount() < leaf.Capacity() {
			return m.insertInto(no, leaf, rec)
		}

		next := leaf.NextPage()
		if next == 0 {
			next, leaf, err = m.grow(no, leaf)
		} else {
			err = m.checkHops(hops + 1)
			if err == nil {
				leaf, err = m.loadLeaf(next)
			}
		}
		if err != nil {
			return 0, err
		}
		no = next
	}
}

func (m *Manager) insertInto(no uint32, leaf Leaf, rec []byte) (RecordID, error) {
	slot, ok := leaf.FindFreeSlot()
	if !ok {
		return 0, errors.Wrapf(ErrLayout, "page %d reports %d of %d used but has no free slot",
			no, leaf.UsedCount(), leaf.Capacity())
	}
	id, err := NewRecordID(no, uint16(slot))
	if err != nil {
		return 0, err
	}
	copy(leaf.Slot(slot), rec)
	if err := leaf.MarkUsed(slot); err != nil {
		return 0, err
	}
	if err := m.writeLeaf(no, leaf); err != nil {
		return 0, err
	}
	return id, nil
}

// grow appends an empty leaf after the full tail page and links it in.
func (m *Manager) grow(tailNo uint32, tail Leaf) (uint32, Leaf, error) {
	no, err := m.store.AllocatePage()
	if err != nil {
		return 0, nil, errors.Wrapf(err, "grow chain after page %d", tailNo)
	}
	leaf := make(Leaf, PageSize)
	if err := leaf.Init(RecordSize); err != nil {
		return 0, nil, err
	}
	if err := m.writeLeaf(no, leaf); err != nil {
		return 0, nil, err
	}
	tail.SetNextPage(no)
	if err := m.writeLeaf(tailNo, tail); err != nil {
		return 0, nil, err
	}
	m.log.Debug("grew page chain", zap.Uint32("tail", tailNo), zap.Uint32("page", no))
	return no, leaf, nil
}

// Get returns a copy of the record stored under id.
func (m *Manager) Get(id RecordID) ([]byte, error) {
	_, leaf, slot, err := m.locate(id)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(leaf.Slot(slot)), nil
}

// Update overwrites the record stored under id.
func (m *Manager) Update(id RecordID, rec []byte) error {
	if len(rec) != RecordSize {
		return errors.Wrapf(ErrInvalidArgument, "record is %d bytes, need %d", len(rec), RecordSize)
	}
	no, leaf, slot, err := m.locate(id)
	if err != nil {
		return err
	}
	copy(leaf.Slot(slot), rec)
	return m.writeLeaf(no, leaf)
}

// Delete zeroes the record stored under id and frees its slot for reuse.
func (m *Manager) Delete(id RecordID) error {
	no, leaf, slot, err := m.locate(id)
	if err != nil {
		return err
	}
	clear(leaf.Slot(slot))
	if err := leaf.MarkFree(slot); err != nil {
		return err
	}
	return m.writeLeaf(no, leaf)
}

func (m *Manager) locate(id RecordID) (uint32, Leaf, int, error) {
	no := id.Page()
	if no == 0 || no >= m.store.PageCount() {
		return 0, nil, 0, errors.Wrapf(ErrInvalidArgument, "record %s: no such page", id)
	}
	leaf, err := m.loadLeaf(no)
	if err != nil {
		return 0, nil, 0, err
	}
	slot := int(id.Slot())
	if slot >= leaf.Capacity() {
		return 0, nil, 0, errors.Wrapf(ErrInvalidArgument, "record %s: slot beyond capacity %d", id, leaf.Capacity())
	}
	if !leaf.IsSlotUsed(slot) {
		return 0, nil, 0, errors.Wrapf(ErrInvalidArgument, "record %s: slot is free", id)
	}
	return no, leaf, slot, nil
}

// ScanFunc receives each live record. rec aliases the page buffer and is
// only valid during the call. A non-nil return stops the scan.
type ScanFunc func(id RecordID, rec []byte) error

// Scan calls fn for every live record, in slot order within a page and in
// chain order across pages. An error returned by fn is returned unchanged.
func (m *Manager) Scan(root uint32, fn ScanFunc) error {
	return m.walk(root, func(no uint32, leaf Leaf) error {
		for slot := 0; slot < leaf.Capacity(); slot++ {
			if !leaf.IsSlotUsed(slot) {
				continue
			}
			id, err := NewRecordID(no, uint16(slot))
			if err != nil {
				return err
			}
			if err := fn(id, leaf.Slot(slot)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ValidateAll checks every page of the chain and every link between them.
func (m *Manager) ValidateAll(root uint32) error {
	return m.walk(root, func(uint32, Leaf) error { return nil })
}

// PageInfo describes one page of a chain.
type PageInfo struct {
	Page       uint32
	Kind       int
	RecordSize int
	Capacity   int
	Used       int
	Next       uint32
}

// Chain lists the pages of the table rooted at root.
func (m *Manager) Chain(root uint32) ([]PageInfo, error) {
	var infos []PageInfo
	err := m.walk(root, func(no uint32, leaf Leaf) error {
		infos = append(infos, PageInfo{
			Page:       no,
			Kind:       leaf.Kind(),
			RecordSize: leaf.RecordSize(),
			Capacity:   leaf.Capacity(),
			Used:       leaf.UsedCount(),
			Next:       leaf.NextPage(),
		})
		return nil
	})
	return infos, err
}

// walk loads and validates each page from root to the tail and hands it to
// visit. Errors from visit are returned unchanged.
func (m *Manager) walk(root uint32, visit func(no uint32, leaf Leaf) error) error {
	if err := m.checkRoot(root); err != nil {
		return err
	}
	no := root
	for hops := uint32(1); no != 0; hops++ {
		if err := m.checkHops(hops); err != nil {
			return err
		}
		leaf, err := m.loadLeaf(no)
		if err != nil {
			return err
		}
		if err := visit(no, leaf); err != nil {
			return err
		}
		no = leaf.NextPage()
	}
	return nil
}

func (m *Manager) checkRoot(root uint32) error {
	if root == 0 || root >= m.store.PageCount() {
		return errors.Wrapf(ErrInvalidArgument, "root page %d, page count %d", root, m.store.PageCount())
	}
	return nil
}

// checkHops bounds a chain walk: page 0 is never a leaf, so a chain of
// distinct pages is at most PageCount-1 long.
func (m *Manager) checkHops(hops uint32) error {
	if hops >= m.store.PageCount() {
		return errors.Wrapf(ErrLayout, "page chain is longer than the file (%d pages), it loops", m.store.PageCount())
	}
	return nil
}

// loadLeaf reads and validates page no, including its link to the next page.
func (m *Manager) loadLeaf(no uint32) (Leaf, error) {
	leaf, err := m.readLeaf(no)
	if err != nil {
		return nil, err
	}
	if err := leaf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "page %d", no)
	}
	if next := leaf.NextPage(); next != 0 && next >= m.store.PageCount() {
		return nil, errors.Wrapf(ErrLayout, "page %d links to page %d past the end of the file", no, next)
	}
	return leaf, nil
}

func (m *Manager) readLeaf(no uint32) (Leaf, error) {
	leaf := make(Leaf, PageSize)
	if err := m.store.ReadPage(no, leaf); err != nil {
		return nil, errors.Wrapf(err, "read page %d", no)
	}
	return leaf, nil
}

func (m *Manager) writeLeaf(no uint32, leaf Leaf) error {
	if err := m.store.WritePage(no, leaf); err != nil {
		return errors.Wrapf(err, "write page %d", no)
	}
	return nil
}
