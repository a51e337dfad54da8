package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/lehigh-university-libraries/photocatalog/internal/exiftool"
	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
	"github.com/lehigh-university-libraries/photocatalog/internal/orientation"
	"github.com/spf13/cobra"
)

type inspection struct {
	File     string            `json:"file"`
	Bucket   string            `json:"bucket,omitempty"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
	Raw      map[string]string `json:"raw"`
	Metadata metadata.Fields   `json:"metadata"`
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Show raw EXIF facts and the normalized metadata for images",
		Long: `Extracts EXIF facts for each file with the configured extractor and prints
them next to the canonical metadata that would be stored in the catalog,
together with the displayed dimensions and the bucket the image falls in.`,
		Example: `  # Inspect a photo before processing
  photocatalog inspect public/images/photos/IMG_0042.jpg

  # Compare both extractors as JSON
  photocatalog inspect --extractor native --format json photo.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			ex, err := exiftool.New(exiftool.Options{Backend: cfg.Extractor, BinaryPath: cfg.ExiftoolPath})
			if err != nil {
				return err
			}

			facts, err := ex.Extract(cmd.Context(), args)
			if err != nil {
				slog.Warn("Metadata extraction degraded", "error", err)
			}

			var results []inspection
			for _, path := range args {
				name := filepath.Base(path)
				in := inspection{
					File:     path,
					Raw:      rawFacts(facts[name]),
					Metadata: metadata.Normalize(facts[name]),
				}
				if w, h, err := orientation.Probe(path); err != nil {
					slog.Warn("Unable to read image dimensions", "file", name, "error", err)
				} else {
					in.Width, in.Height = w, h
					in.Bucket = string(orientation.Classify(w, h))
				}
				results = append(results, in)
			}

			switch format {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(results)
			case "text":
				printInspections(cmd.OutOrStdout(), results)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
			}
		},
	}

	cmd.Flags().String("extractor", "", "Metadata extractor: auto, exiftool or native")
	cmd.Flags().String("exiftool-path", "", "Path to the exiftool binary")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")

	return cmd
}

func rawFacts(facts metadata.Facts) map[string]string {
	out := make(map[string]string, len(facts))
	for name, fact := range facts {
		out[name] = fmt.Sprintf("%s (%s)", fact.Text(), fact.Kind())
	}
	return out
}

func printInspections(w io.Writer, results []inspection) {
	for _, in := range results {
		fmt.Fprintf(w, "%s\n", in.File)
		if in.Bucket != "" {
			fmt.Fprintf(w, "  Dimensions: %dx%d (%s)\n", in.Width, in.Height, in.Bucket)
		}

		fmt.Fprintln(w, "  Raw facts:")
		names := make([]string, 0, len(in.Raw))
		for name := range in.Raw {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "    %s: %s\n", name, in.Raw[name])
		}

		fmt.Fprintln(w, "  Metadata:")
		for _, key := range in.Metadata.Keys() {
			v, _ := in.Metadata.Get(key)
			fmt.Fprintf(w, "    %s: %s\n", key, v)
		}
		fmt.Fprintln(w)
	}
}
