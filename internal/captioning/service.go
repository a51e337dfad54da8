// Package captioning asks a vision model for display headers of catalog
// records that still carry their file name as header.
package captioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/photocatalog/internal/catalog"
	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/gemini"
	"github.com/lehigh-university-libraries/photocatalog/internal/ollama"
	"github.com/lehigh-university-libraries/photocatalog/internal/openai"
	"github.com/lehigh-university-libraries/photocatalog/internal/providers"
)

const maxHeaderRunes = 80

const defaultPrompt = `You are titling photographs for a personal photography gallery.
Look at the photograph and reply with a short, evocative title of at most eight words.
Reply with the title only: no quotes, no punctuation at the end, no explanation.`

// NewProvider returns the provider registered under name.
func NewProvider(name string) (providers.Provider, error) {
	switch name {
	case "ollama":
		return ollama.New(), nil
	case "openai":
		return openai.New(), nil
	case "gemini":
		return gemini.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
	prompt      string
}

func NewService(provider providers.Provider, model string, temperature float64) *Service {
	return &Service{
		provider:    provider,
		model:       model,
		temperature: temperature,
		prompt:      defaultPrompt,
	}
}

// Result lists the images that received a new header.
type Result struct {
	Captioned []string
	Skipped   int
}

// Caption sets headers for records in c whose header equals their image
// name, or for every record when force is set. Images are read from dir.
// Records that cannot be captioned keep their header; their errors are
// returned joined as a degraded failure. Metadata and bucket placement are
// never touched.
func (s *Service) Caption(ctx context.Context, c *catalog.Catalog, dir string, force bool) (Result, error) {
	var res Result
	var errs []error

	for _, b := range catalog.Buckets {
		records := c.Records(b)
		for i := range records {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			rec := &records[i]
			if !force && rec.Header != rec.Image {
				res.Skipped++
				continue
			}

			header, err := s.describe(ctx, filepath.Join(dir, rec.Image))
			if err != nil {
				slog.Warn("Failed to caption image", "image", rec.Image, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", rec.Image, err))
				continue
			}

			slog.Info("Captioned image", "image", rec.Image, "header", header)
			rec.Header = header
			res.Captioned = append(res.Captioned, rec.Image)
		}
	}

	return res, failure.Join("caption", errs...)
}

func (s *Service) describe(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	raw, err := s.provider.Describe(ctx, providers.Request{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      s.prompt,
		Image:       data,
		MIMEType:    http.DetectContentType(data),
	})
	if err != nil {
		return "", err
	}

	header := CleanHeader(raw)
	if header == "" {
		return "", errors.New("provider returned an empty caption")
	}
	return header, nil
}

// CleanHeader reduces a model reply to a single display line: the first
// non-empty line, without markdown emphasis or surrounding quotes, cut to
// a bounded length.
func CleanHeader(raw string) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	line = strings.TrimPrefix(line, "Title:")
	line = strings.Trim(line, " *_#`")
	line = strings.Trim(line, "\"'“”‘’")
	line = strings.TrimSpace(line)

	if utf8.RuneCountInString(line) > maxHeaderRunes {
		runes := []rune(line)
		line = strings.TrimSpace(string(runes[:maxHeaderRunes]))
	}
	return line
}
