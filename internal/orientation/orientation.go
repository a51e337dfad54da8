// Package orientation decides which catalog bucket an image belongs in.
package orientation

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/photocatalog/internal/catalog"
	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
)

// Classify is the bucket rule: strictly taller than wide is a portrait,
// everything else (square included) is a landscape.
func Classify(width, height int) catalog.Bucket {
	if height > width {
		return catalog.Portraits
	}
	return catalog.Landscapes
}

// Probe returns the displayed dimensions of the image at path. Only the
// image header is decoded. Width and height are swapped when the EXIF
// orientation rotates the image by 90 degrees.
func Probe(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}

	width, height := cfg.Width, cfg.Height
	if o := Orientation(path); o >= 5 && o <= 8 {
		width, height = height, width
	}

	slog.Debug("Probed image", "file", filepath.Base(path), "format", format, "width", width, "height", height)
	return width, height, nil
}

// Bucket probes path and classifies it. Failing to read the image is fatal.
func Bucket(path string) (catalog.Bucket, error) {
	width, height, err := Probe(path)
	if err != nil {
		return "", failure.Fatalf("classify "+filepath.Base(path), err)
	}
	return Classify(width, height), nil
}

// Prober classifies files on disk.
type Prober struct{}

func (Prober) Bucket(path string) (catalog.Bucket, error) {
	return Bucket(path)
}

// Orientation returns the EXIF orientation of the file at path, or 1 when
// the file carries no readable orientation tag.
func Orientation(path string) uint16 {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		if rawExif, ok := jpegExif(path); ok {
			return orientationTag(rawExif)
		}
	}

	rawExif, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		if !errors.Is(err, exif.ErrNoExif) {
			slog.Debug("Unable to read EXIF", "file", filepath.Base(path), "error", err)
		}
		return 1
	}
	return orientationTag(rawExif)
}

// jpegExif reads the EXIF block from the APP1 segment of a JPEG.
func jpegExif(path string) ([]byte, bool) {
	mp := jpegstructure.NewJpegMediaParser()
	intfc, err := mp.ParseFile(path)
	if err != nil {
		return nil, false
	}

	sl, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, false
	}

	_, rawExif, err := sl.Exif()
	if err != nil || len(rawExif) == 0 {
		return nil, false
	}
	return rawExif, true
}

func orientationTag(rawExif []byte) uint16 {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return 1
	}

	ti := exif.NewTagIndex()
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return 1
	}

	results, err := index.RootIfd.FindTagWithName("Orientation")
	if err != nil || len(results) == 0 {
		return 1
	}

	value, err := results[0].Value()
	if err != nil {
		return 1
	}

	if v, ok := value.([]uint16); ok && len(v) > 0 {
		return v[0]
	}
	return 1
}
