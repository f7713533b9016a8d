package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/revise/internal/archive"
	"github.com/at-ishikawa/revise/internal/store"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import items or cards exported as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("os.Open(%s) > %w", args[0], err)
			}
			defer func() {
				_ = file.Close()
			}()

			doc, err := archive.Decode(file)
			if err != nil {
				return fmt.Errorf("archive.Decode(%s) > %w", args[0], err)
			}

			_, db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			restored, err := archive.Restore(cmd.Context(), store.NewDBStore(db, doc.Kind), doc)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d %ss\n", restored, len(doc.Entities), doc.Kind)
			if err != nil {
				return fmt.Errorf("archive.Restore() > %w", err)
			}
			return nil
		},
	}
}
