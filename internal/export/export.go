// Package export flattens the catalog into rows for downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/photocatalog/internal/catalog"
	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
)

const (
	FormatJSON    = "json"
	FormatJSONL   = "jsonl"
	FormatYAML    = "yaml"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Formats lists every supported output format.
var Formats = []string{FormatJSON, FormatJSONL, FormatYAML, FormatCSV, FormatParquet}

// Row is one catalog record with its metadata spread into columns.
type Row struct {
	Bucket          string `json:"bucket" yaml:"bucket" parquet:"bucket"`
	Header          string `json:"header" yaml:"header" parquet:"header"`
	Image           string `json:"image" yaml:"image" parquet:"image"`
	ShutterSpeed    string `json:"shutterSpeed,omitempty" yaml:"shutterSpeed,omitempty" parquet:"shutter_speed"`
	Aperture        string `json:"aperture,omitempty" yaml:"aperture,omitempty" parquet:"aperture"`
	ISO             string `json:"iso,omitempty" yaml:"iso,omitempty" parquet:"iso"`
	CreatedDateTime string `json:"createdDateTime,omitempty" yaml:"createdDateTime,omitempty" parquet:"created_date_time"`
	CameraModel     string `json:"cameraModel,omitempty" yaml:"cameraModel,omitempty" parquet:"camera_model"`
	LensModel       string `json:"lensModel,omitempty" yaml:"lensModel,omitempty" parquet:"lens_model"`
}

var csvHeader = []string{
	"bucket", "header", "image",
	metadata.FieldShutterSpeed,
	metadata.FieldAperture,
	metadata.FieldISO,
	metadata.FieldCreatedDateTime,
	metadata.FieldCameraModel,
	metadata.FieldLensModel,
}

func (r Row) values() []string {
	return []string{
		r.Bucket, r.Header, r.Image,
		r.ShutterSpeed, r.Aperture, r.ISO,
		r.CreatedDateTime, r.CameraModel, r.LensModel,
	}
}

// Rows flattens c in catalog order, Portraits first. Metadata keys outside
// the canonical set are not exported.
func Rows(c *catalog.Catalog) []Row {
	rows := make([]Row, 0, c.Len())
	for _, b := range catalog.Buckets {
		for _, rec := range c.Records(b) {
			get := func(key string) string {
				v, _ := rec.Metadata.Get(key)
				return v
			}
			rows = append(rows, Row{
				Bucket:          string(b),
				Header:          rec.Header,
				Image:           rec.Image,
				ShutterSpeed:    get(metadata.FieldShutterSpeed),
				Aperture:        get(metadata.FieldAperture),
				ISO:             get(metadata.FieldISO),
				CreatedDateTime: get(metadata.FieldCreatedDateTime),
				CameraModel:     get(metadata.FieldCameraModel),
				LensModel:       get(metadata.FieldLensModel),
			})
		}
	}
	return rows
}

// ParseFormat normalizes a format name. "yml" is accepted for yaml.
func ParseFormat(name string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(name))
	if format == "yml" {
		format = FormatYAML
	}
	if !slices.Contains(Formats, format) {
		return "", fmt.Errorf("unsupported export format: %q (supported: %s)", name, strings.Join(Formats, ", "))
	}
	return format, nil
}

// FormatFromPath guesses the format from an output file extension.
func FormatFromPath(path string) (string, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Write encodes rows to w in format.
func Write(w io.Writer, format string, rows []Row) error {
	slog.Debug("Exporting catalog", "format", format, "rows", len(rows))

	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatJSONL:
		return writeJSONL(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatParquet:
		return writeParquet(w, rows)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

func writeJSON(w io.Writer, rows []Row) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func writeJSONL(w io.Writer, rows []Row) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row %s: %w", row.Image, err)
		}
	}
	return nil
}

func writeYAML(w io.Writer, rows []Row) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.values()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeParquet(w io.Writer, rows []Row) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
