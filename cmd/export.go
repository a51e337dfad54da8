package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/photocatalog/internal/catalog"
	"github.com/lehigh-university-libraries/photocatalog/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as flat rows (json, jsonl, yaml, csv or parquet)",
		Long: `Flattens every catalog record into one row with the bucket, header, image
and each canonical metadata field as its own column.

The format is taken from --format, or guessed from the --output extension.`,
		Example: `  # Print CSV to stdout
  photocatalog export --format csv

  # Write a parquet file for analysis
  photocatalog export --output photos.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			switch {
			case format != "":
				format, err = export.ParseFormat(format)
			case output != "":
				format, err = export.FormatFromPath(output)
			default:
				format = export.FormatJSON
			}
			if err != nil {
				return err
			}

			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				slog.Warn("Catalog could not be loaded cleanly", "path", cfg.CatalogPath, "error", err)
			}
			rows := export.Rows(cat)

			if output == "" {
				err = export.Write(cmd.OutOrStdout(), format, rows)
			} else {
				err = writeExportFile(output, format, rows)
			}
			if err != nil {
				return fmt.Errorf("failed to export catalog: %w", err)
			}

			slog.Debug("Catalog exported", "rows", len(rows), "format", format, "output", output)
			return nil
		},
	}

	addPathFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, jsonl, yaml, csv or parquet")

	return cmd
}

func writeExportFile(path, format string, rows []export.Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	return export.Write(f, format, rows)
}
