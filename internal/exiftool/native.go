package exiftool

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
)

// Native decodes EXIF in process. Tags are reported under the names
// exiftool uses so the normalizer sees the same facts from either backend.
type Native struct{}

var nativeTags = []struct {
	field exif.FieldName
	name  string
}{
	{exif.ExposureTime, metadata.TagExposureTime},
	{exif.ShutterSpeedValue, metadata.TagShutterSpeedValue},
	{exif.FNumber, metadata.TagFNumber},
	{exif.ApertureValue, metadata.TagApertureValue},
	{exif.ISOSpeedRatings, metadata.TagISO},
	{exif.DateTimeOriginal, metadata.TagDateTimeOriginal},
	{exif.DateTimeDigitized, metadata.TagCreateDate},
	{exif.DateTime, metadata.TagModifyDate},
	{exif.Model, metadata.TagModel},
	{exif.Make, metadata.TagMake},
	{exif.LensModel, metadata.TagLensModel},
	{exif.Orientation, metadata.TagOrientation},
}

func (n *Native) Extract(ctx context.Context, paths []string) (map[string]metadata.Facts, error) {
	out := emptyResults(paths)

	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		facts, err := n.extractFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[filepath.Base(path)] = facts
	}

	return out, failure.Join("extract metadata", errs...)
}

func (n *Native) extractFile(path string) (metadata.Facts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	facts := metadata.Facts{}
	x, err := exif.Decode(f)
	if err != nil {
		// Files without an EXIF block simply have no facts.
		slog.Debug("No EXIF data", "file", filepath.Base(path), "error", err)
		return facts, nil
	}

	for _, t := range nativeTags {
		tag, err := x.Get(t.field)
		if err != nil {
			continue
		}
		fact := tagFact(tag)
		if fact.Kind() == metadata.Absent {
			continue
		}
		facts[t.name] = fact
	}

	// exiftool reports these APEX values already converted.
	if fact, ok := facts[metadata.TagApertureValue]; ok && fact.Kind() == metadata.Number {
		facts[metadata.TagApertureValue] = metadata.Num(math.Round(math.Pow(2, fact.Float()/2)*10) / 10)
	}
	if fact, ok := facts[metadata.TagShutterSpeedValue]; ok && fact.Kind() == metadata.Number {
		facts[metadata.TagShutterSpeedValue] = metadata.Num(math.Pow(2, -fact.Float()))
	}

	return facts, nil
}

func tagFact(tag *tiff.Tag) metadata.Fact {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return metadata.Fact{}
		}
		return metadata.Str(strings.TrimRight(s, "\x00"))
	case tiff.IntVal:
		v, err := tag.Int(0)
		if err != nil {
			return metadata.Fact{}
		}
		return metadata.Num(float64(v))
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil || den == 0 {
			return metadata.Fact{}
		}
		return metadata.Num(float64(num) / float64(den))
	case tiff.FloatVal:
		v, err := tag.Float(0)
		if err != nil {
			return metadata.Fact{}
		}
		return metadata.Num(v)
	default:
		return metadata.Fact{}
	}
}
