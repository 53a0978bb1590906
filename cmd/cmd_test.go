package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aita/minidb/table"
	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
)

type env struct {
	t      *testing.T
	dir    string
	config string
	db     string
}

func newEnv(t *testing.T, yaml string) *env {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "minidb.yaml")
	assert.NilError(t, os.WriteFile(config, []byte("log:\n  level: error\n"+yaml), 0644))
	return &env{t: t, dir: dir, config: config, db: filepath.Join(dir, "test.db")}
}

func (e *env) run(stdin io.Reader, args ...string) (string, error) {
	e.t.Helper()
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (e *env) mustRun(stdin io.Reader, args ...string) string {
	e.t.Helper()
	out, err := e.run(stdin, args...)
	assert.NilError(e.t, err, "minidb %s", strings.Join(args, " "))
	return out
}

func person(name string, age byte) []byte {
	rec := make([]byte, table.RecordSize)
	copy(rec, name)
	rec[16] = age
	return rec
}

func (e *env) writeRecord(name string, rec []byte) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	assert.NilError(e.t, os.WriteFile(path, rec, 0644))
	return path
}

func TestTableCommands(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{name: "direct"},
		{name: "cached", yaml: "cache:\n  pages: 8\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, tc.yaml)

			out := e.mustRun(nil, "create", e.db, "1")
			assert.Equal(t, "created table at page 1\n", out)

			out = e.mustRun(bytes.NewReader(person("alice", 30)), "insert", e.db, "1", "-")
			assert.Equal(t, "65536\n", out)
			out = e.mustRun(nil, "insert", e.db, "1", e.writeRecord("bob.rec", person("bob", 41)))
			assert.Equal(t, "65537\n", out)

			out = e.mustRun(nil, "get", e.db, "65536")
			assert.Assert(t, strings.Contains(out, "alice"), out)

			out = e.mustRun(nil, "listf", e.db, "1", "name:0:16:s,age:16:1:u8")
			assert.Assert(t, strings.Contains(out, "alice"), out)
			assert.Assert(t, strings.Contains(out, "41"), out)
			assert.Assert(t, strings.HasSuffix(out, "(2 rows)\n"), out)

			out = e.mustRun(nil, "update", e.db, "65537", e.writeRecord("carol.rec", person("carol", 52)))
			assert.Equal(t, "ok\n", out)
			out = e.mustRun(nil, "getf", e.db, "65537", "name:0:16:s")
			assert.Assert(t, strings.Contains(out, "carol"), out)

			assert.Equal(t, "ok\n", e.mustRun(nil, "delete", e.db, "65536"))
			out = e.mustRun(nil, "scan", e.db, "1")
			assert.Equal(t, "65537\t1:1\n(1 rows)\n", out)

			assert.Equal(t, "ok\n", e.mustRun(nil, "validate", e.db, "1"))

			out = e.mustRun(nil, "inspect", e.db, "1")
			assert.Assert(t, strings.Contains(out, "file: 2 pages, 8.0 KiB"), out)
			assert.Assert(t, strings.Contains(out, "chain: 1\n"), out)
			assert.Assert(t, strings.Contains(out, "used=1 next=0"), out)
			assert.Assert(t, strings.Contains(out, "rows: 1\n"), out)

			out = e.mustRun(nil, "dump", "row", e.db, "65537")
			assert.Assert(t, strings.HasPrefix(out, "id=65537 page=1 slot=1\n"), out)
			out = e.mustRun(nil, "dump", "page", e.db, "1")
			assert.Assert(t, strings.HasPrefix(out, "kind=1 record_size=128 capacity=31 used=1 next=0\n"), out)
		})
	}
}

func TestCommandErrors(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(nil, "create", e.db, "1")

	_, err := e.run(nil, "get", e.db, "65536")
	assert.Assert(t, errors.Is(err, table.ErrInvalidArgument), "%v", err)

	_, err = e.run(strings.NewReader("short"), "insert", e.db, "1", "-")
	assert.ErrorContains(t, err, "read 128 byte record")

	_, err = e.run(nil, "scan", e.db, "one")
	assert.ErrorContains(t, err, "bad page number")

	_, err = e.run(nil, "listf", e.db, "1", "@missing")
	assert.ErrorContains(t, err, "no layout named")
}

func TestListWithLayout(t *testing.T) {
	dir := t.TempDir()
	layouts := filepath.Join(dir, "layouts.properties")
	assert.NilError(t, os.WriteFile(layouts, []byte("person = name:0:16:s,age:16:1:u8\n"), 0644))
	e := newEnv(t, "layouts: "+layouts+"\n")

	e.mustRun(nil, "create", e.db, "1")
	e.mustRun(bytes.NewReader(person("dave", 23)), "insert", e.db, "1", "-")

	out := e.mustRun(nil, "listf", e.db, "1", "@person")
	assert.Assert(t, strings.Contains(out, "dave"), out)
	assert.Assert(t, strings.Contains(out, "23"), out)
}

func TestExportImport(t *testing.T) {
	e := newEnv(t, "")
	e.mustRun(nil, "create", e.db, "1")
	for _, name := range []string{"erin", "frank", "grace"} {
		e.mustRun(bytes.NewReader(person(name, 1)), "insert", e.db, "1", "-")
	}
	want := e.mustRun(nil, "checksum", e.db, "1")
	assert.Equal(t, 65, len(want))

	archive := filepath.Join(e.dir, "test.db.xz")
	e.mustRun(nil, "export", e.db, archive)

	restored := filepath.Join(e.dir, "restored.db")
	out := e.mustRun(nil, "import", archive, restored)
	assert.Equal(t, "restored 2 pages\n", out)
	assert.Equal(t, want, e.mustRun(nil, "checksum", restored, "1"))

	_, err := e.run(nil, "export", e.db, archive)
	assert.Assert(t, errors.Is(err, os.ErrExist), "%v", err)
}
