package cmd

import (
	"log/slog"

	"github.com/lehigh-university-libraries/photocatalog/internal/captioning"
	"github.com/lehigh-university-libraries/photocatalog/internal/catalog"
	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
	"github.com/lehigh-university-libraries/photocatalog/internal/providers"
	"github.com/spf13/cobra"
)

func newCaptionCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "caption",
		Short: "Generate display headers with a vision LLM",
		Long: `Asks a vision-capable LLM (Ollama, OpenAI or Gemini) for a short title for
every catalog record whose header is still its file name.

Headers that were already edited by hand are left alone unless --force is
given. Metadata and bucket placement are never changed.`,
		Example: `  # Caption new photos with a local Ollama model
  photocatalog caption --provider ollama --model llava

  # Re-title every photo with Gemini (needs GEMINI_API_KEY)
  photocatalog caption --provider gemini --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			provider, err := captioning.NewProvider(cfg.Caption.Provider)
			if err != nil {
				return err
			}
			model := cfg.Caption.Model
			if model == "" {
				model = providers.DefaultModel(cfg.Caption.Provider)
			}

			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				slog.Warn("Catalog could not be loaded cleanly", "path", cfg.CatalogPath, "error", err)
			}

			slog.Info("Captioning catalog", "provider", cfg.Caption.Provider, "model", model, "records", cat.Len())

			svc := captioning.NewService(provider, model, cfg.Caption.Temperature)
			res, err := svc.Caption(cmd.Context(), cat, cfg.PhotosDir, force)
			if err != nil {
				if !failure.IsDegraded(err) {
					return err
				}
				slog.Warn("Some images were not captioned", "error", err)
			}

			if len(res.Captioned) == 0 {
				slog.Info("No headers changed", "skipped", res.Skipped)
				return nil
			}
			if err := cat.Save(cfg.CatalogPath); err != nil {
				return err
			}

			slog.Info("Captioning complete", "captioned", len(res.Captioned), "skipped", res.Skipped)
			return nil
		},
	}

	addPathFlags(cmd)
	cmd.Flags().String("provider", "", "LLM provider (ollama, openai, or gemini)")
	cmd.Flags().String("model", "", "Model name (defaults to provider's default)")
	cmd.Flags().Float64("temperature", 0, "Sampling temperature")
	cmd.Flags().BoolVar(&force, "force", false, "Replace headers that were already set")

	return cmd
}
