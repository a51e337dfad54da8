// Package convert turns source rasters into the web delivery format.
package convert

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/nfnt/resize"
)

// webpMethod trades encode time for size; 6 is the slowest, smallest.
const webpMethod = 6

var removeFile = os.Remove

// Converter encodes images to WebP next to their sources.
type Converter struct {
	// Quality is the lossy WebP quality, 1..100.
	Quality int
	// MaxEdge bounds the longest edge in pixels; zero keeps full size.
	MaxEdge int
	// TargetExt is the output extension including the dot.
	TargetExt string
	// DeleteSources removes the source after a successful first conversion.
	DeleteSources bool
}

// Result describes one Convert call.
type Result struct {
	Source        string
	Output        string
	Created       bool
	SourceDeleted bool
}

// Changed reports whether the conversion belongs in the change report.
func (r Result) Changed() bool {
	return r.Created || r.SourceDeleted
}

// OutputPath returns the target path for src: same directory and stem,
// target extension.
func (c *Converter) OutputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + c.TargetExt
}

// Convert writes the target file for src unless it already exists. An
// existing target is never overwritten and is reported as not created.
// A source that cannot be deleted afterwards is logged and reported as
// kept; it does not fail the conversion.
func (c *Converter) Convert(src string) (Result, error) {
	res := Result{Source: src, Output: c.OutputPath(src)}

	if _, err := os.Stat(res.Output); err == nil {
		slog.Debug("Target exists, skipping conversion", "source", filepath.Base(src), "output", filepath.Base(res.Output))
		return res, nil
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return res, fmt.Errorf("failed to decode %s: %w", filepath.Base(src), err)
	}
	img = c.prepare(img)

	if err := c.write(res.Output, img); err != nil {
		return res, err
	}
	res.Created = true

	slog.Info("Converted image",
		"source", filepath.Base(src),
		"output", filepath.Base(res.Output),
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	if c.DeleteSources {
		if err := removeFile(src); err != nil {
			slog.Warn("Failed to delete source", "source", filepath.Base(src), "error", err)
		} else {
			res.SourceDeleted = true
		}
	}

	return res, nil
}

// prepare coerces the pixel format the encoder expects and applies the
// optional size bound.
func (c *Converter) prepare(img image.Image) image.Image {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA:
	default:
		img = imaging.Clone(img)
	}

	if c.MaxEdge > 0 {
		edge := uint(c.MaxEdge)
		img = resize.Thumbnail(edge, edge, img, resize.Lanczos3)
	}
	return img
}

func (c *Converter) write(output string, img image.Image) error {
	dir := filepath.Dir(output)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(output)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := webp.Encode(tmp, img, webp.Options{Quality: c.Quality, Method: webpMethod}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(output), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(output), err)
	}
	return nil
}
