package cmd

import (
	"log/slog"

	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/pipeline"
	"github.com/spf13/cobra"
)

func newProcessCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Convert new photos and update the catalog",
		Long: `Runs one processing pass over the photos directory.

Every JPEG/PNG source is converted to WebP (existing WebP files are never
overwritten), its EXIF data is normalized into the catalog record, and every
WebP in the directory is placed in the Portraits or Landscapes bucket. Existing
catalog values always win over newly extracted ones. A markdown summary of the
changes is written for use as a pull request body.`,
		Example: `  # Process the default public/images/photos directory
  photocatalog process

  # Keep the original JPEGs and use the in-process EXIF decoder
  photocatalog process --keep-sources --extractor native

  # Process another directory with a custom catalog
  photocatalog process --photos-dir ./photos --catalog ./photos.json --report ./body.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			deps, err := pipeline.NewDeps(cfg)
			if err != nil {
				return err
			}

			summary, err := pipeline.Run(cmd.Context(), cfg, deps)
			if err != nil {
				if summary == nil || !failure.IsDegraded(err) {
					return err
				}
				slog.Warn("Processing finished with warnings", "error", err)
			}

			slog.Info("Processing complete",
				"conversions", len(summary.Conversions),
				"updated", len(summary.Updated),
				"moved", len(summary.Moved))
			return nil
		},
	}

	addPathFlags(cmd)
	cmd.Flags().String("report", "", "Path of the markdown change report")
	cmd.Flags().Int("quality", 0, "WebP quality (1-100)")
	cmd.Flags().Int("max-edge", 0, "Downscale so the longest edge is at most this many pixels (0 keeps full size)")
	cmd.Flags().Bool("keep-sources", false, "Keep source files after conversion")
	cmd.Flags().String("extractor", "", "Metadata extractor: auto, exiftool or native")
	cmd.Flags().String("exiftool-path", "", "Path to the exiftool binary")

	return cmd
}
