package cmd

import (
	"strconv"

	"github.com/aita/minidb/pager"
	"github.com/aita/minidb/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// session is one open database: the pager, the optional cache in front of
// it and a table manager over whichever of the two is in use.
type session struct {
	pager  *pager.Pager
	cache  *pager.Cache
	tables *table.Manager
}

func openSession(path string) (*session, error) {
	p, err := pager.Open(path, pager.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	s := &session{pager: p}
	var store table.PageStore = p
	if cfg.Cache.Pages > 0 {
		s.cache, err = pager.NewCache(p, cfg.Cache.Pages, pager.WithLogger(logger))
		if err != nil {
			return nil, multierr.Append(err, p.Close())
		}
		store = s.cache
	}
	s.tables, err = table.NewManager(store, table.WithLogger(logger))
	if err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	return s, nil
}

func (s *session) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return s.pager.Close()
}

// withSession opens path, runs fn and closes the database again.
func withSession(path string, fn func(*session) error) error {
	s, err := openSession(path)
	if err != nil {
		return err
	}
	err = fn(s)
	return multierr.Append(err, s.Close())
}

func parsePage(arg string) (uint32, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad page number %q", arg)
	}
	return uint32(n), nil
}

func parseID(arg string) (table.RecordID, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad record id %q", arg)
	}
	return table.RecordID(n), nil
}
