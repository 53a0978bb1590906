package pager

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"go.uber.org/multierr"
)

// Export writes every page, header page included, to w as an xz stream.
func (p *Pager) Export(w io.Writer) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return ioError("export", err)
	}
	buf := make([]byte, p.pageSize)
	for no := uint32(0); no < p.pageCount; no++ {
		if err := p.ReadPage(no, buf); err != nil {
			return multierr.Append(err, xw.Close())
		}
		if _, err := xw.Write(buf); err != nil {
			return multierr.Append(ioError("export", err), xw.Close())
		}
	}
	if err := xw.Close(); err != nil {
		return ioError("export", err)
	}
	return nil
}

// Restore decompresses an Export stream into a new file at path and opens
// it. The file must not exist yet; it is removed again if the stream does
// not hold a valid database.
func Restore(r io.Reader, path string, opts ...Option) (*Pager, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, ioError("restore", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, ioError("restore", err)
	}
	n, err := io.Copy(file, xr)
	if err != nil {
		err = ioError("restore", err)
	} else if n < HeaderSize {
		err = errors.Wrapf(ErrTruncated, "archive holds %d bytes", n)
	}
	if err == nil {
		err = file.Sync()
		if err != nil {
			err = ioError("sync", err)
		}
	}
	err = multierr.Append(err, closeSink(fileSink{file}))
	if err != nil {
		return nil, multierr.Append(err, os.Remove(path))
	}

	p, err := Open(path, opts...)
	if err != nil {
		return nil, multierr.Append(err, os.Remove(path))
	}
	return p, nil
}
