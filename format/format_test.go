package format

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aita/minidb/table"
	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
)

func sampleRecord() []byte {
	rec := make([]byte, table.RecordSize)
	binary.LittleEndian.PutUint32(rec[0:], 123456)
	copy(rec[4:], "Ada Lovelace   ")
	binary.LittleEndian.PutUint16(rec[40:], 1815)
	rec[42] = 7
	copy(rec[43:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	return rec
}

func TestParse(t *testing.T) {
	spec, err := Parse("id:0:4:u32, name : 4:32:s,born:40:2:u16,flags:42:1:u8,tag:43:4:hex")
	assert.NilError(t, err)
	assert.DeepEqual(t, Spec{
		{Name: "id", Offset: 0, Length: 4, Type: Uint32},
		{Name: "name", Offset: 4, Length: 32, Type: String},
		{Name: "born", Offset: 40, Length: 2, Type: Uint16},
		{Name: "flags", Offset: 42, Length: 1, Type: Uint8},
		{Name: "tag", Offset: 43, Length: 4, Type: Hex},
	}, spec)
}

func TestParseRejectsBadSpecs(t *testing.T) {
	for _, s := range []string{
		"",
		"id:0:4",
		"id:0:4:float",
		"id:-1:4:u32",
		"id:0:2:u32",
		"tail:120:16:s",
		"a:0:4:u32,",
	} {
		_, err := Parse(s)
		assert.Assert(t, errors.Is(err, ErrBadSpec), "spec %q: got %v", s, err)
	}
}

func TestRender(t *testing.T) {
	spec, err := Parse("id:0:4:u32,name:4:32:s,born:40:2:u16,flags:42:1:u8,tag:43:4:hex")
	assert.NilError(t, err)
	rec := sampleRecord()

	var got []string
	for _, f := range spec {
		got = append(got, f.Render(rec))
	}
	assert.DeepEqual(t, []string{"123456", "Ada Lovelace", "1815", "7", "deadbeef"}, got)
}

func TestRenderTruncatesWideColumns(t *testing.T) {
	rec := bytes.Repeat([]byte{'x'}, table.RecordSize)
	s := Field{Name: "s", Offset: 0, Length: 64, Type: String}
	assert.Equal(t, 30, len(s.Render(rec)))
	h := Field{Name: "h", Offset: 0, Length: 64, Type: Hex}
	assert.Equal(t, 32, len(h.Render(rec)))
}

func TestTable(t *testing.T) {
	spec, err := Parse("id:0:4:u32,name:4:32:s")
	assert.NilError(t, err)

	var out bytes.Buffer
	tbl := NewTable(&out, spec)
	tbl.Append(65536, sampleRecord())
	tbl.Append(65537, make([]byte, table.RecordSize))
	assert.NilError(t, tbl.Render())

	text := out.String()
	assert.Assert(t, strings.Contains(text, "ID"))
	assert.Assert(t, strings.Contains(text, "name"))
	assert.Assert(t, strings.Contains(text, "65536"))
	assert.Assert(t, strings.Contains(text, "Ada Lovelace"))
	assert.Assert(t, strings.HasSuffix(text, "(2 rows)\n"))
}

func TestLoadLayoutsAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.properties")
	content := "# people table\nperson = id:0:4:u32,name:4:32:s\nraw = all:0:16:hex\n"
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))

	layouts, err := LoadLayouts(path)
	assert.NilError(t, err)
	assert.Equal(t, 2, len(layouts))

	spec, err := Resolve("@person", layouts)
	assert.NilError(t, err)
	assert.Equal(t, 2, len(spec))

	spec, err = Resolve("n:0:1:u8", layouts)
	assert.NilError(t, err)
	assert.Equal(t, Uint8, spec[0].Type)

	_, err = Resolve("@missing", layouts)
	assert.Assert(t, errors.Is(err, ErrBadSpec), "got %v", err)
}

func TestLoadLayoutsRejectsBadEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.properties")
	assert.NilError(t, os.WriteFile(path, []byte("broken = id:0\n"), 0644))
	_, err := LoadLayouts(path)
	assert.Assert(t, errors.Is(err, ErrBadSpec), "got %v", err)
}
