package cmd

import (
	"github.com/aita/minidb/format"
	"github.com/spf13/cobra"
)

var listfCmd = &cobra.Command{
	Use:   "listf [file name] [root page] [spec|@layout]",
	Short: "List records as a table of decoded fields",
	Long: `List records as a table of decoded fields.

A spec is a comma separated list of name:offset:length:type fields where
type is one of s, hex, u8, u16 or u32, for example

  name:0:32:s,age:32:1:u8

"@name" uses a layout from the layouts file.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		spec, err := resolveSpec(args[2])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			t := format.NewTable(cmd.OutOrStdout(), spec)
			c := s.tables.Cursor(root)
			for c.Next() {
				t.Append(uint32(c.ID()), c.Record())
			}
			if err := c.Err(); err != nil {
				return err
			}
			return t.Render()
		})
	},
}

var getfCmd = &cobra.Command{
	Use:   "getf [file name] [record id] [spec|@layout]",
	Short: "Print one record as decoded fields",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		spec, err := resolveSpec(args[2])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			rec, err := s.tables.Get(id)
			if err != nil {
				return err
			}
			t := format.NewTable(cmd.OutOrStdout(), spec)
			t.Append(uint32(id), rec)
			return t.Render()
		})
	},
}

func resolveSpec(arg string) (format.Spec, error) {
	var layouts map[string]format.Spec
	if cfg.Layouts != "" {
		var err error
		layouts, err = format.LoadLayouts(cfg.Layouts)
		if err != nil {
			return nil, err
		}
	}
	return format.Resolve(arg, layouts)
}

func init() {
	rootCmd.AddCommand(listfCmd)
	rootCmd.AddCommand(getfCmd)
}
