package pager

import (
	"bytes"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Cache is an optional write-through page cache in front of a Pager. It
// offers the same page operations, so callers can use either.
type Cache struct {
	pager    *Pager
	pages    *ristretto.Cache[uint32, []byte]
	maxPages int64
	log      *zap.Logger
}

// NewCache wraps p with a cache holding at most maxPages page copies. The
// cache owns p from then on; closing the cache closes the pager.
//
// Each page costs 1 against maxPages, so ristretto's internal per-item
// cost must be ignored or no page would ever fit.
func NewCache(p *Pager, maxPages int64, opts ...Option) (*Cache, error) {
	if maxPages <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "cache size %d", maxPages)
	}
	pages, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		NumCounters:        maxPages * 10,
		MaxCost:            maxPages,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "pager: create page cache")
	}
	s := newSettings(opts)
	s.log.Debug("page cache enabled", zap.Int64("max_pages", maxPages))
	return &Cache{
		pager:    p,
		pages:    pages,
		maxPages: maxPages,
		log:      s.log,
	}, nil
}

func (c *Cache) PageSize() int {
	return c.pager.PageSize()
}

func (c *Cache) PageCount() uint32 {
	return c.pager.PageCount()
}

// ReadPage serves page no from the cache, falling back to the pager.
func (c *Cache) ReadPage(no uint32, buf []byte) error {
	if len(buf) == c.pager.PageSize() && no < c.pager.PageCount() {
		if page, ok := c.pages.Get(no); ok {
			copy(buf, page)
			return nil
		}
	}
	if err := c.pager.ReadPage(no, buf); err != nil {
		return err
	}
	c.store(no, buf)
	return nil
}

// WritePage writes through to the pager and refreshes the cached copy.
func (c *Cache) WritePage(no uint32, buf []byte) error {
	if err := c.pager.WritePage(no, buf); err != nil {
		c.pages.Del(no)
		c.pages.Wait()
		return err
	}
	c.store(no, buf)
	return nil
}

// AllocatePage is passed through; fresh pages are zero and not worth
// caching until they are read or written.
func (c *Cache) AllocatePage() (uint32, error) {
	return c.pager.AllocatePage()
}

// Close drops the cache and closes the pager.
func (c *Cache) Close() error {
	if c.pages != nil {
		c.log.Debug("page cache closed",
			zap.Uint64("hits", c.pages.Metrics.Hits()),
			zap.Uint64("misses", c.pages.Metrics.Misses()))
		c.pages.Close()
		c.pages = nil
	}
	return c.pager.Close()
}

// store keeps a private copy so later mutations of buf by the caller do not
// leak into the cache. Wait makes the set visible to the next Get.
func (c *Cache) store(no uint32, buf []byte) {
	c.pages.Set(no, bytes.Clone(buf), 1)
	c.pages.Wait()
}
