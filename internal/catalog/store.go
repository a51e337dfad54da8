package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/metadata"
)

// Load reads the catalog at path. It always returns a usable catalog: a
// missing file yields an empty one silently, and an unreadable or
// malformed file yields an empty (or partially recovered) catalog together
// with a degraded error.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Catalog not found, starting empty", "path", path)
		return New(), nil
	}
	if err != nil {
		return New(), failure.Degradedf("read catalog", err)
	}
	return Parse(data)
}

// Parse decodes catalog JSON, repairing what it can. Buckets that are not
// arrays are replaced by empty buckets, and array entries that are not
// objects are skipped.
func Parse(data []byte) (*Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return New(), failure.Degradedf("parse catalog", err)
	}
	if top == nil {
		return New(), failure.Degradedf("parse catalog", errors.New("top level is not an object"))
	}

	c := New()
	var errs []error
	for _, b := range Buckets {
		raw, ok := top[string(b)]
		if !ok {
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			errs = append(errs, fmt.Errorf("bucket %s is not an array", b))
			continue
		}

		records := make([]Record, 0, len(items))
		for i, item := range items {
			rec, err := RepairRecord(item)
			if err != nil {
				errs = append(errs, fmt.Errorf("bucket %s entry %d: %w", b, i, err))
				continue
			}
			records = append(records, rec)
		}
		*c.bucket(b) = records
	}

	return c, failure.Join("parse catalog", errs...)
}

// RepairRecord coerces one raw catalog entry into a Record. A missing or
// empty header mirrors the image name and vice versa; metadata that is not
// an object becomes empty. Only entries that are not JSON objects fail.
func RepairRecord(raw json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Record{}, errors.New("entry is not an object")
	}

	rec := Record{
		Header: stringValue(fields["header"]),
		Image:  stringValue(fields["image"]),
	}
	if mdRaw, ok := fields["metadata"]; ok {
		var md metadata.Fields
		if err := json.Unmarshal(mdRaw, &md); err == nil {
			rec.Metadata = md
		}
	}

	return rec.Repaired(), nil
}

func stringValue(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Repaired fills an empty header from the image name and an empty image
// name from the header.
func (r Record) Repaired() Record {
	if r.Header == "" {
		r.Header = r.Image
	}
	if r.Image == "" {
		r.Image = r.Header
	}
	return r
}

// Marshal renders the catalog as indented JSON with Portraits before
// Landscapes, literal non-ASCII text and a trailing newline.
func (c *Catalog) Marshal() ([]byte, error) {
	out := Catalog{
		Portraits:  nonNil(c.Portraits),
		Landscapes: nonNil(c.Landscapes),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return metadata.KeepLineSeparators(buf.Bytes()), nil
}

func nonNil(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}

// Save writes the catalog to path, creating parent directories. The file
// is replaced atomically.
func (c *Catalog) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close catalog: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set catalog permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}

	slog.Debug("Catalog saved", "path", path, "records", c.Len())
	return nil
}
