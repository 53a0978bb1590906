// Package format renders fixed-size records as columns described by a field
// spec such as "id:0:4:u32,name:4:32:s".
package format

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/aita/minidb/table"
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

var ErrBadSpec = errors.New("format: bad field spec")

// Type is how a field's bytes are shown.
type Type int

const (
	String Type = iota
	Hex
	Uint8
	Uint16
	Uint32
)

var typeNames = map[string]Type{
	"s":   String,
	"hex": Hex,
	"u8":  Uint8,
	"u16": Uint16,
	"u32": Uint32,
}

const (
	maxStringWidth = 30
	maxHexWidth    = 32
)

// Field is one column: Length bytes at Offset within the record.
type Field struct {
	Name   string
	Offset int
	Length int
	Type   Type
}

// Spec is an ordered list of fields.
type Spec []Field

type specAST struct {
	Fields []*fieldAST `parser:"@@ ( ',' @@ )*"`
}

type fieldAST struct {
	Name   string `parser:"@Ident ':'"`
	Offset int    `parser:"@Int ':'"`
	Length int    `parser:"@Int ':'"`
	Type   string `parser:"@Ident"`
}

var specParser = participle.MustBuild[specAST]()

// Parse reads a comma separated list of name:offset:length:type fields.
// Types are s, hex, u8, u16 and u32.
func Parse(s string) (Spec, error) {
	ast, err := specParser.ParseString("", s)
	if err != nil {
		return nil, errors.Wrap(ErrBadSpec, err.Error())
	}
	if len(ast.Fields) == 0 {
		return nil, errors.Wrap(ErrBadSpec, "no fields")
	}
	spec := make(Spec, 0, len(ast.Fields))
	for _, f := range ast.Fields {
		typ, ok := typeNames[f.Type]
		if !ok {
			return nil, errors.Wrapf(ErrBadSpec, "field %s: unknown type %q", f.Name, f.Type)
		}
		field := Field{Name: f.Name, Offset: f.Offset, Length: f.Length, Type: typ}
		if err := field.check(); err != nil {
			return nil, err
		}
		spec = append(spec, field)
	}
	return spec, nil
}

func (f Field) check() error {
	if f.Length < f.Type.width() {
		return errors.Wrapf(ErrBadSpec, "field %s: length %d too short for its type", f.Name, f.Length)
	}
	if f.Offset+f.Length > table.RecordSize {
		return errors.Wrapf(ErrBadSpec, "field %s: bytes %d..%d outside the record", f.Name, f.Offset, f.Offset+f.Length)
	}
	return nil
}

func (t Type) width() int {
	switch t {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Uint32:
		return 4
	}
	return 0
}

// Render formats the field's bytes of rec.
func (f Field) Render(rec []byte) string {
	b := rec[f.Offset : f.Offset+f.Length]
	switch f.Type {
	case Hex:
		s := hex.EncodeToString(b)
		if len(s) > maxHexWidth {
			s = s[:maxHexWidth]
		}
		return s
	case Uint8:
		return strconv.FormatUint(uint64(b[0]), 10)
	case Uint16:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(b)), 10)
	case Uint32:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(b)), 10)
	}
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	s := strings.TrimRight(string(b), " ")
	if len(s) > maxStringWidth {
		s = s[:maxStringWidth]
	}
	return s
}
