// Package exiftool extracts raw EXIF facts from image files, either through
// the external exiftool program or with an in-process decoder.
package exiftool

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
)

const (
	BackendAuto     = "auto"
	BackendExiftool = "exiftool"
	BackendNative   = "native"
)

// Extractor returns the raw facts of each file keyed by base file name.
// Every requested file has an entry, empty when extraction failed. Returned
// errors describe per-file problems and are always degraded, except for
// context cancellation.
type Extractor interface {
	Extract(ctx context.Context, paths []string) (map[string]metadata.Facts, error)
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	BinaryPath string
}

// New returns the extractor named by opts.Backend. The auto backend uses
// exiftool when the binary can be found and falls back to the native
// decoder otherwise.
func New(opts Options) (Extractor, error) {
	switch opts.Backend {
	case BackendExiftool:
		return &Exiftool{BinaryPath: opts.BinaryPath}, nil
	case BackendNative:
		return &Native{}, nil
	case BackendAuto, "":
		bin := opts.BinaryPath
		if bin == "" {
			bin = "exiftool"
		}
		if _, err := exec.LookPath(bin); err != nil {
			slog.Info("exiftool not found, using native EXIF decoder", "binary", bin)
			return &Native{}, nil
		}
		return &Exiftool{BinaryPath: opts.BinaryPath}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", opts.Backend)
	}
}

func emptyResults(paths []string) map[string]metadata.Facts {
	out := make(map[string]metadata.Facts, len(paths))
	for _, p := range paths {
		out[filepath.Base(p)] = metadata.Facts{}
	}
	return out
}
