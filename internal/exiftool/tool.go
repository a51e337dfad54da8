package exiftool

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	goexiftool "github.com/barasher/go-exiftool"

	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
)

// Exiftool runs one exiftool process per Extract call and reads all files
// in a single batch with numeric output (-n).
type Exiftool struct {
	// BinaryPath overrides the exiftool found on PATH.
	BinaryPath string
}

func (e *Exiftool) Extract(ctx context.Context, paths []string) (map[string]metadata.Facts, error) {
	out := emptyResults(paths)
	if len(paths) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	opts := []func(*goexiftool.Exiftool) error{goexiftool.NoPrintConversion()}
	if e.BinaryPath != "" {
		opts = append(opts, goexiftool.SetExiftoolBinaryPath(e.BinaryPath))
	}

	et, err := goexiftool.NewExiftool(opts...)
	if err != nil {
		return out, failure.Degradedf("start exiftool", err)
	}
	defer et.Close()

	slog.Debug("Extracting metadata with exiftool", "files", len(paths))

	var errs []error
	for _, fm := range et.ExtractMetadata(paths...) {
		name := filepath.Base(fm.File)
		if fm.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, fm.Err))
			continue
		}
		out[name] = metadata.FactsFromFields(fm.Fields)
	}

	return out, failure.Join("extract metadata", errs...)
}
