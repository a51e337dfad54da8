package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/photocatalog/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "photocatalog",
		Short: "Photo gallery maintenance: WebP conversion and catalog upkeep",
		Long: `Photocatalog keeps a photography gallery in sync with its image directory.

It converts new JPEG and PNG photos to WebP, reads their EXIF data, sorts
them into portrait and landscape buckets and merges everything into the
gallery's JSON catalog without ever overwriting curated values.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(opts.verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML or TOML config file (or PHOTOCATALOG_CONFIG)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newProcessCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newCaptionCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))

	return cmd
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// loadConfig layers defaults, the config file, PHOTOCATALOG_* variables and
// any flags changed on cmd, in that order.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("PHOTOCATALOG_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Debug("Configuration loaded", "file", path, "photos_dir", cfg.PhotosDir, "catalog", cfg.CatalogPath)
	return cfg, nil
}

func addPathFlags(cmd *cobra.Command) {
	cmd.Flags().String("photos-dir", "", "Directory holding the gallery images")
	cmd.Flags().String("catalog", "", "Path to the catalog JSON file")
}

// applyFlags copies flags the user actually set onto cfg. Commands only
// register the flags that concern them.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"photos-dir":    &cfg.PhotosDir,
		"catalog":       &cfg.CatalogPath,
		"report":        &cfg.ReportPath,
		"extractor":     &cfg.Extractor,
		"exiftool-path": &cfg.ExiftoolPath,
		"provider":      &cfg.Caption.Provider,
		"model":         &cfg.Caption.Model,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	intFlags := map[string]*int{
		"quality":  &cfg.Quality,
		"max-edge": &cfg.MaxEdge,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("keep-sources") {
		keep, err := flags.GetBool("keep-sources")
		if err != nil {
			return err
		}
		cfg.DeleteSources = !keep
	}
	if flags.Changed("temperature") {
		v, err := flags.GetFloat64("temperature")
		if err != nil {
			return err
		}
		cfg.Caption.Temperature = v
	}

	return nil
}
