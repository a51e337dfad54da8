// Package pipeline drives one processing run over the photos directory:
// extract, normalize, convert, classify and merge into the catalog, then
// persist the catalog and the change report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/photocatalog/internal/catalog"
	"github.com/lehigh-university-libraries/photocatalog/internal/config"
	"github.com/lehigh-university-libraries/photocatalog/internal/convert"
	"github.com/lehigh-university-libraries/photocatalog/internal/exiftool"
	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
	"github.com/lehigh-university-libraries/photocatalog/internal/orientation"
	"github.com/lehigh-university-libraries/photocatalog/internal/report"
)

// Classifier picks the bucket for an image on disk.
type Classifier interface {
	Bucket(path string) (catalog.Bucket, error)
}

// Converter produces the target file for a source image.
type Converter interface {
	Convert(src string) (convert.Result, error)
}

// Deps are the components a run uses.
type Deps struct {
	Extractor  exiftool.Extractor
	Classifier Classifier
	Converter  Converter
}

// NewDeps builds the production components for cfg.
func NewDeps(cfg config.Config) (Deps, error) {
	ex, err := exiftool.New(exiftool.Options{Backend: cfg.Extractor, BinaryPath: cfg.ExiftoolPath})
	if err != nil {
		return Deps{}, err
	}
	return Deps{
		Extractor:  ex,
		Classifier: orientation.Prober{},
		Converter: &convert.Converter{
			Quality:       cfg.Quality,
			MaxEdge:       cfg.MaxEdge,
			TargetExt:     cfg.TargetExtension,
			DeleteSources: cfg.DeleteSources,
		},
	}, nil
}

// Summary is what a run changed.
type Summary struct {
	Conversions []convert.Result
	// Updated holds target file names inserted or refreshed, de-duplicated
	// and sorted case-insensitively.
	Updated []string
	Moved   []report.Move
	Catalog *catalog.Catalog
}

// Report converts the summary into the markdown report model.
func (s *Summary) Report(catalogName string) report.Report {
	r := report.Report{
		CatalogName: catalogName,
		Updated:     s.Updated,
		Moved:       s.Moved,
	}
	for _, c := range s.Conversions {
		r.Conversions = append(r.Conversions, report.Conversion{
			Source:        filepath.Base(c.Source),
			Output:        filepath.Base(c.Output),
			SourceDeleted: c.SourceDeleted,
		})
	}
	return r
}

// Run performs one pass. Degraded problems are logged and the run goes
// on; a fatal error aborts before anything is written.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*Summary, error) {
	info, err := os.Stat(cfg.PhotosDir)
	if err != nil {
		return nil, failure.Fatalf("open photos directory", err)
	}
	if !info.IsDir() {
		return nil, failure.Fatalf("open photos directory", fmt.Errorf("%s is not a directory", cfg.PhotosDir))
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Warn("Catalog could not be loaded cleanly, continuing with recovered data", "path", cfg.CatalogPath, "error", err)
	}

	sources, err := listFiles(cfg.PhotosDir, cfg.IsSource)
	if err != nil {
		return nil, failure.Fatalf("list photos", err)
	}
	slog.Info("Processing photos", "dir", cfg.PhotosDir, "sources", len(sources))

	facts, err := deps.Extractor.Extract(ctx, sources)
	if err != nil {
		if !failure.IsDegraded(err) {
			return nil, err
		}
		slog.Warn("Metadata extraction degraded", "error", err)
	}

	s := &Summary{Catalog: cat}
	var updated []string

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		md := metadata.Normalize(facts[filepath.Base(src)])

		res, err := deps.Converter.Convert(src)
		if err != nil {
			slog.Warn("Skipping source that could not be converted", "source", filepath.Base(src), "error", err)
			continue
		}
		if res.Changed() {
			s.Conversions = append(s.Conversions, res)
		}

		name := filepath.Base(res.Output)
		bucket, err := deps.Classifier.Bucket(res.Output)
		if err != nil {
			return nil, err
		}

		if cat.Upsert(bucket, name, md) == catalog.Moved {
			s.addMove(name, bucket)
		}
		updated = append(updated, name)
	}

	targets, err := listFiles(cfg.PhotosDir, cfg.IsTarget)
	if err != nil {
		return nil, failure.Fatalf("list photos", err)
	}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(target)
		bucket, err := deps.Classifier.Bucket(target)
		if err != nil {
			return nil, err
		}

		switch cat.Upsert(bucket, name, metadata.Fields{}) {
		case catalog.Inserted:
			updated = append(updated, name)
		case catalog.Moved:
			s.addMove(name, bucket)
		}
	}

	s.Updated = sortFold(updated)

	if err := cat.Save(cfg.CatalogPath); err != nil {
		return nil, failure.Fatalf("save catalog", err)
	}
	slog.Info("Catalog written", "path", cfg.CatalogPath, "records", cat.Len(), "updated", len(s.Updated))

	if cfg.ReportPath != "" {
		if err := s.Report(filepath.Base(cfg.CatalogPath)).Write(cfg.ReportPath); err != nil {
			return s, failure.Degradedf("write report", err)
		}
		slog.Info("Report written", "path", cfg.ReportPath)
	}

	return s, nil
}

func (s *Summary) addMove(name string, to catalog.Bucket) {
	for _, m := range s.Moved {
		if m.Image == name {
			return
		}
	}
	s.Moved = append(s.Moved, report.Move{
		Image: name,
		From:  string(to.Other()),
		To:    string(to),
	})
	slog.Info("Moved record between buckets", "image", name, "to", to)
}

// listFiles returns the regular files in dir accepted by keep, sorted by
// lower-cased name.
func listFiles(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !keep(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}

	paths := make([]string, 0, len(names))
	for _, name := range sortFold(names) {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// sortFold de-duplicates names and sorts them case-insensitively, falling
// back to byte order for names that differ only in case.
func sortFold(names []string) []string {
	out := slices.Clone(names)
	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return slices.Compact(out)
}
