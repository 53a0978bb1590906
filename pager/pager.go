// Package pager presents a database file as an array of fixed-size pages.
//
// Page 0 holds the file header. Every call goes straight to the underlying
// sink; there is no buffering beyond the caller's page buffer.
package pager

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// PageSize is the only page size supported by this file version.
	PageSize = 4096
	// HeaderSize is the length of the file header at offset 0.
	HeaderSize = 20
	// Version is the only file format version understood.
	Version = 1
)

// Magic is the file signature stored in the first four bytes.
var Magic = [4]byte{'M', 'D', 'B', '1'}

const (
	hdrMagicOff     = 0
	hdrVersionOff   = 4
	hdrPageSizeOff  = 8
	hdrPageCountOff = 12
	hdrFlagsOff     = 16
)

type fileHeader struct {
	Magic     [4]byte
	Version   uint32
	PageSize  uint32
	PageCount uint32
	Flags     uint32
}

func (hdr *fileHeader) marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[hdrMagicOff:], hdr.Magic[:])
	binary.LittleEndian.PutUint32(buf[hdrVersionOff:], hdr.Version)
	binary.LittleEndian.PutUint32(buf[hdrPageSizeOff:], hdr.PageSize)
	binary.LittleEndian.PutUint32(buf[hdrPageCountOff:], hdr.PageCount)
	binary.LittleEndian.PutUint32(buf[hdrFlagsOff:], hdr.Flags)
	return buf
}

func (hdr *fileHeader) unmarshal(buf []byte) {
	copy(hdr.Magic[:], buf[hdrMagicOff:hdrMagicOff+4])
	hdr.Version = binary.LittleEndian.Uint32(buf[hdrVersionOff:])
	hdr.PageSize = binary.LittleEndian.Uint32(buf[hdrPageSizeOff:])
	hdr.PageCount = binary.LittleEndian.Uint32(buf[hdrPageCountOff:])
	hdr.Flags = binary.LittleEndian.Uint32(buf[hdrFlagsOff:])
}

func (hdr *fileHeader) validate() error {
	if !bytes.Equal(hdr.Magic[:], Magic[:]) {
		return errors.Wrapf(ErrBadMagic, "got %q", hdr.Magic[:])
	}
	if hdr.Version != Version {
		return errors.Wrapf(ErrBadVersion, "got %d", hdr.Version)
	}
	if hdr.PageSize != PageSize {
		return errors.Wrapf(ErrBadPageSize, "got %d", hdr.PageSize)
	}
	if hdr.PageCount < 1 {
		return errors.Wrap(ErrBadMetadata, "page count is zero")
	}
	if hdr.Flags != 0 {
		return errors.Wrapf(ErrBadMetadata, "flags %#x", hdr.Flags)
	}
	if uint64(hdr.PageCount) > math.MaxInt64/uint64(hdr.PageSize) {
		return errors.Wrapf(ErrBadMetadata, "page count %d overflows file offsets", hdr.PageCount)
	}
	return nil
}

// Pager owns a Sink and hands out whole pages of it.
type Pager struct {
	sink      Sink
	pageSize  int
	pageCount uint32
	log       *zap.Logger
}

// Open opens the database file at path, creating and bootstrapping it when
// it is missing or empty.
func Open(path string, opts ...Option) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, ioError("open", err)
	}
	return OpenSink(fileSink{file}, opts...)
}

// OpenSink is Open over an already opened sink. The sink is closed if
// validation fails and owned by the returned Pager otherwise.
func OpenSink(sink Sink, opts ...Option) (*Pager, error) {
	s := newSettings(opts)
	p := &Pager{
		sink: sink,
		log:  s.log,
	}
	if err := p.load(); err != nil {
		err = multierr.Append(err, closeSink(sink))
		return nil, err
	}
	return p, nil
}

func (p *Pager) load() error {
	size, err := p.sink.Size()
	if err != nil {
		return ioError("stat", err)
	}
	if size == 0 {
		if err := p.bootstrap(); err != nil {
			return err
		}
	}

	buf := make([]byte, HeaderSize)
	if err := readFull(p.sink, buf, 0); err != nil {
		return err
	}
	var hdr fileHeader
	hdr.unmarshal(buf)
	if err := hdr.validate(); err != nil {
		return err
	}

	size, err = p.sink.Size()
	if err != nil {
		return ioError("stat", err)
	}
	need := int64(hdr.PageCount) * int64(hdr.PageSize)
	if size < need {
		return errors.Wrapf(ErrTruncated, "file has %d bytes, header requires %d", size, need)
	}

	p.pageSize = int(hdr.PageSize)
	p.pageCount = hdr.PageCount
	return nil
}

func (p *Pager) bootstrap() error {
	hdr := fileHeader{
		Magic:     Magic,
		Version:   Version,
		PageSize:  PageSize,
		PageCount: 1,
	}
	if err := writeFull(p.sink, hdr.marshal(), 0); err != nil {
		return err
	}
	if err := p.sink.Truncate(PageSize); err != nil {
		return ioError("truncate", err)
	}
	p.log.Debug("bootstrapped empty database file")
	return nil
}

// PageSize returns the size of every page in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// PageCount returns the number of pages, header page included.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// ReadPage fills buf with page no.
func (p *Pager) ReadPage(no uint32, buf []byte) error {
	off, err := p.pageOffset(no, buf)
	if err != nil {
		return err
	}
	return readFull(p.sink, buf, off)
}

// WritePage stores buf as page no. Pages past the end must be allocated
// first.
func (p *Pager) WritePage(no uint32, buf []byte) error {
	off, err := p.pageOffset(no, buf)
	if err != nil {
		return err
	}
	return writeFull(p.sink, buf, off)
}

// AllocatePage appends a zeroed page and persists the new page count in
// the file header.
func (p *Pager) AllocatePage() (uint32, error) {
	if p.sink == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "pager is closed")
	}
	if p.pageCount == math.MaxUint32 {
		return 0, errors.Wrap(ErrBadMetadata, "page count would overflow")
	}
	no := p.pageCount
	off, err := offsetOf(no, p.pageSize)
	if err != nil {
		return 0, err
	}
	if off > math.MaxInt64-int64(p.pageSize) {
		return 0, errors.Wrapf(ErrBadMetadata, "page %d ends past the maximum file offset", no)
	}

	if err := writeFull(p.sink, make([]byte, p.pageSize), off); err != nil {
		return 0, err
	}
	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, no+1)
	if err := writeFull(p.sink, count, hdrPageCountOff); err != nil {
		return 0, err
	}
	p.pageCount = no + 1
	p.log.Debug("allocated page", zap.Uint32("page", no), zap.Uint32("page_count", p.pageCount))
	return no, nil
}

// Close releases the sink. Closing twice is a no-op.
func (p *Pager) Close() error {
	if p.sink == nil {
		return nil
	}
	err := closeSink(p.sink)
	p.sink = nil
	return err
}

func (p *Pager) pageOffset(no uint32, buf []byte) (int64, error) {
	if p.sink == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "pager is closed")
	}
	if len(buf) != p.pageSize {
		return 0, errors.Wrapf(ErrInvalidArgument, "buffer is %d bytes, page is %d", len(buf), p.pageSize)
	}
	if no >= p.pageCount {
		return 0, errors.Wrapf(ErrOutOfRange, "page %d, page count %d", no, p.pageCount)
	}
	return offsetOf(no, p.pageSize)
}

func offsetOf(no uint32, pageSize int) (int64, error) {
	if uint64(no) > math.MaxInt64/uint64(pageSize) {
		return 0, errors.Wrapf(ErrBadMetadata, "page %d overflows file offsets", no)
	}
	return int64(no) * int64(pageSize), nil
}

func closeSink(sink Sink) error {
	if err := sink.Close(); err != nil {
		return ioError("close", err)
	}
	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN)
}

// readFull reads len(buf) bytes at off, retrying interrupted and short reads.
func readFull(r io.ReaderAt, buf []byte, off int64) error {
	done := 0
	for done < len(buf) {
		n, err := r.ReadAt(buf[done:], off+int64(done))
		done += n
		if done == len(buf) {
			return nil
		}
		switch {
		case err == nil:
			if n == 0 {
				return ioError("read", io.ErrNoProgress)
			}
		case isTransient(err):
		case errors.Is(err, io.EOF):
			return ioError("read", io.ErrUnexpectedEOF)
		default:
			return ioError("read", err)
		}
	}
	return nil
}

// writeFull writes all of buf at off, retrying interrupted and short writes.
func writeFull(w io.WriterAt, buf []byte, off int64) error {
	done := 0
	for done < len(buf) {
		n, err := w.WriteAt(buf[done:], off+int64(done))
		done += n
		if done == len(buf) {
			return nil
		}
		switch {
		case err == nil:
			if n == 0 {
				return ioError("write", io.ErrShortWrite)
			}
		case isTransient(err):
		default:
			return ioError("write", err)
		}
	}
	return nil
}
