package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aita/minidb/table"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file name] [root page]",
	Short: "Describe the page chain of a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			w := cmd.OutOrStdout()
			pages := s.pager.PageCount()
			size := uint64(pages) * uint64(s.pager.PageSize())
			fmt.Fprintf(w, "file: %d pages, %s\n", pages, humanize.IBytes(size))

			// Chain returns the pages it got through before any error.
			infos, err := s.tables.Chain(root)
			chain := make([]string, len(infos))
			rows := 0
			for i, info := range infos {
				chain[i] = fmt.Sprint(info.Page)
				rows += info.Used
			}
			fmt.Fprintf(w, "chain: %s\n", strings.Join(chain, " -> "))
			for _, info := range infos {
				fmt.Fprintf(w, "  page %d: kind=%d record_size=%d capacity=%d used=%d next=%d\n",
					info.Page, info.Kind, info.RecordSize, info.Capacity, info.Used, info.Next)
			}
			fmt.Fprintf(w, "rows: %s\n", humanize.Comma(int64(rows)))
			return err
		})
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Hex dump raw pages and records",
}

var dumpPageCmd = &cobra.Command{
	Use:   "page [file name] [page]",
	Short: "Hex dump one page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		no, err := parsePage(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			buf := make([]byte, s.pager.PageSize())
			if err := s.pager.ReadPage(no, buf); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if no > 0 {
				leaf := table.Leaf(buf)
				fmt.Fprintf(w, "kind=%d record_size=%d capacity=%d used=%d next=%d\n",
					leaf.Kind(), leaf.RecordSize(), leaf.Capacity(), leaf.UsedCount(), leaf.NextPage())
				if err := leaf.Validate(); err != nil {
					fmt.Fprintf(w, "invalid: %v\n", err)
				}
			}
			_, err := io.WriteString(w, hex.Dump(buf))
			return err
		})
	},
}

var dumpRowCmd = &cobra.Command{
	Use:   "row [file name] [record id]",
	Short: "Hex dump one record with its location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			rec, err := s.tables.Get(id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "id=%d page=%d slot=%d\n", uint32(id), id.Page(), id.Slot())
			_, err = io.WriteString(w, hex.Dump(rec))
			return err
		})
	},
}

func init() {
	dumpCmd.AddCommand(dumpPageCmd)
	dumpCmd.AddCommand(dumpRowCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(dumpCmd)
}
