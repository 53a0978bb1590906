package format

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Table buffers rows and writes them as a bordered table followed by a row
// count.
type Table struct {
	w    io.Writer
	spec Spec
	tw   *tablewriter.Table
	rows int
}

func NewTable(w io.Writer, spec Spec) *Table {
	header := []string{"ID"}
	for _, f := range spec {
		header = append(header, f.Name)
	}
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	return &Table{w: w, spec: spec, tw: tw}
}

// Append adds the record stored under id.
func (t *Table) Append(id uint32, rec []byte) {
	row := make([]string, 0, len(t.spec)+1)
	row = append(row, strconv.FormatUint(uint64(id), 10))
	for _, f := range t.spec {
		row = append(row, f.Render(rec))
	}
	t.tw.Append(row)
	t.rows++
}

func (t *Table) Render() error {
	t.tw.Render()
	_, err := fmt.Fprintf(t.w, "(%d rows)\n", t.rows)
	return err
}
