// Package report renders the markdown summary of a processing run, used as
// the body of the automated pull request.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Conversion is one converted source file.
type Conversion struct {
	Source        string
	Output        string
	SourceDeleted bool
}

// Move is a catalog record that changed bucket.
type Move struct {
	Image string
	From  string
	To    string
}

// Report collects what a run changed.
type Report struct {
	// CatalogName is the catalog file name shown in the section heading.
	CatalogName string
	Conversions []Conversion
	Updated     []string
	Moved       []Move
}

// Empty reports whether the run changed nothing.
func (r Report) Empty() bool {
	return len(r.Conversions) == 0 && len(r.Updated) == 0 && len(r.Moved) == 0
}

// Render returns the markdown body.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString("Automated photo processing\n")
	b.WriteString("Changes in this PR:\n")

	if len(r.Conversions) > 0 {
		b.WriteString("### Conversions\n")
		for _, c := range r.Conversions {
			note := "kept source"
			if c.SourceDeleted {
				note = "deleted source"
			}
			fmt.Fprintf(&b, "- `%s` → `%s` (%s)\n", c.Source, c.Output, note)
		}
		b.WriteString("\n")
	}

	if len(r.Updated) > 0 {
		name := r.CatalogName
		if name == "" {
			name = "catalog"
		}
		fmt.Fprintf(&b, "### %s entries updated/added for\n", name)
		for _, image := range r.Updated {
			fmt.Fprintf(&b, "- `%s`\n", image)
		}
		b.WriteString("\n")
	}

	if len(r.Moved) > 0 {
		b.WriteString("### Entries moved between buckets\n")
		for _, m := range r.Moved {
			fmt.Fprintf(&b, "- `%s`: %s → %s\n", m.Image, m.From, m.To)
		}
		b.WriteString("\n")
	}

	if r.Empty() {
		b.WriteString("- No photo changes detected\n")
	}

	return b.String()
}

// Write renders the report to path, creating parent directories.
func (r Report) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(r.Render()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
