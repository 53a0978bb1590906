package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/aita/minidb/pager"
	"github.com/aita/minidb/table"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var checksumCmd = &cobra.Command{
	Use:   "checksum [file name] [root page]",
	Short: "Print the BLAKE3 digest of a table's live records",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePage(args[1])
		if err != nil {
			return err
		}
		return withSession(args[0], func(s *session) error {
			sum, err := table.Digest(s.tables, root)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sum[:]))
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file name] [archive]",
	Short: "Write an xz compressed copy of a database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(args[0], func(s *session) error {
			out, err := os.OpenFile(args[1], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
			if err != nil {
				return err
			}
			if err := s.pager.Export(out); err != nil {
				return multierr.Combine(err, out.Close(), os.Remove(args[1]))
			}
			if err := out.Close(); err != nil {
				return err
			}
			logger.Info("database exported",
				zap.String("archive", args[1]),
				zap.Uint32("pages", s.pager.PageCount()))
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import [archive] [file name]",
	Short: "Restore a database from an export archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		p, err := pager.Restore(in, args[1], pager.WithLogger(logger))
		err = multierr.Append(err, in.Close())
		if err != nil {
			if p != nil {
				err = multierr.Append(err, p.Close())
			}
			return err
		}
		logger.Info("database imported",
			zap.String("file", args[1]),
			zap.Uint32("pages", p.PageCount()))
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d pages\n", p.PageCount())
		return p.Close()
	},
}

func init() {
	rootCmd.AddCommand(checksumCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
