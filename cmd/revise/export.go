package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/revise/internal/archive"
	"github.com/at-ishikawa/revise/internal/pdf"
	"github.com/at-ishikawa/revise/internal/store"
)

func newExportCommand() *cobra.Command {
	kind := kindFlag{kind: store.KindItem}
	format := formatFlag{format: formatYAML}
	var output string

	command := &cobra.Command{
		Use:   "export",
		Short: "Export items or cards with their review history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format.format == formatPDF && output == "" {
				return fmt.Errorf("--output is required for pdf exports")
			}

			ws, err := openWorkspace(cmd.Context(), kind.kind)
			if err != nil {
				return err
			}
			defer ws.Close()

			doc, err := archive.Collect(cmd.Context(), ws.store, time.Now())
			if err != nil {
				return fmt.Errorf("archive.Collect() > %w", err)
			}

			switch format.format {
			case formatPDF:
				pdfPath, err := pdf.ConvertMarkdown(archive.Markdown(doc), output)
				if err != nil {
					return fmt.Errorf("pdf.ConvertMarkdown() > %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d %ss to %s\n", len(doc.Entities), kind.kind, pdfPath)
				return nil
			default:
				return writeYAML(cmd.OutOrStdout(), output, doc)
			}
		},
	}
	command.Flags().Var(&kind, "kind", "kind to export (item or card)")
	command.Flags().Var(&format, "format", "output format (yaml or pdf)")
	command.Flags().StringVarP(&output, "output", "o", "", "output file; yaml is written to stdout when empty")
	return command
}

func writeYAML(stdout io.Writer, output string, doc *archive.Document) error {
	if output == "" {
		return archive.Encode(stdout, doc)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(output), err)
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", output, err)
	}
	if err := archive.Encode(file, doc); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close() > %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "exported %d %ss to %s\n", len(doc.Entities), doc.Kind, output)
	return nil
}
