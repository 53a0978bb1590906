package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/aita/minidb/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var createCmd = &cobra.Command{
	Use:   "create [file name] [root page]",
	Short: "Create a table rooted at a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			if err := s.tables.Create(root); err != nil {
				return err
			}
			logger.Info("table created", zap.Uint32("root", root))
			fmt.Fprintf(cmd.OutOrStdout(), "created table at page %d\n", root)
			return nil
		})
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert [file name] [root page] [record file|-]",
	Short: "Insert a 128 byte record and print its id",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		rec, err := readRecord(cmd, args[2])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			id, err := s.tables.Insert(root, rec)
			if err != nil {
				return err
			}
			logger.Debug("record inserted", zap.Stringer("id", id))
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", uint32(id))
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get [file name] [record id]",
	Short: "Print a record as a hex dump",
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
			_, err = io.WriteString(cmd.OutOrStdout(), hex.Dump(rec))
			return err
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [file name] [record id] [record file|-]",
	Short: "Overwrite a live record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		rec, err := readRecord(cmd, args[2])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			if err := s.tables.Update(id, rec); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [file name] [record id]",
	Short: "Delete a live record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			if err := s.tables.Delete(id); err != nil {
				return err
			}
			logger.Debug("record deleted", zap.Stringer("id", id))
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		})
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [file name] [root page]",
	Short: "List the ids of all live records",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			w := cmd.OutOrStdout()
			n := 0
			err := s.tables.Scan(root, func(id table.RecordID, rec []byte) error {
				n++
				_, err := fmt.Fprintf(w, "%d\t%s\n", uint32(id), id)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "(%d rows)\n", n)
			return nil
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [file name] [root page]",
	Short: "Check every page of a table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			if err := s.tables.ValidateAll(root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		})
	},
}

// readRecord reads exactly one record from a file, or from stdin for "-".
// Input past the first record is ignored.
func readRecord(cmd *cobra.Command, name string) (rec []byte, err error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, openErr := os.Open(name)
		if openErr != nil {
			return nil, openErr
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		r = f
	}
	rec = make([]byte, table.RecordSize)
	if _, err := io.ReadFull(r, rec); err != nil {
		return nil, errors.Wrapf(err, "read %d byte record from %s", table.RecordSize, name)
	}
	return rec, nil
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(validateCmd)
}
