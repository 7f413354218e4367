package main

import (
	"context"
	"log/slog"
	"os"

	"imagefetch/pkg/config"
	_ "imagefetch/pkg/driver/prelude"
	"imagefetch/pkg/registry"
	"imagefetch/pkg/version"

	"github.com/spf13/cobra"
)

var Registry registry.CommandRegistry

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		slog.Error("error", "err", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	var configPath string

	cmd := &cobra.Command{
		Use:           "imagefetch",
		Short:         "imagefetch - download images with progress reporting and cooperative cancel",
		Version:       version.BuildID(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			cfg, err := config.Load(c.Context(), configPath)
			if err != nil {
				return err
			}
			if cfg.Path != "" {
				slog.Debug("config loaded", "path", cfg.Path)
			}
			c.SetContext(config.WithConfig(c.Context(), cfg))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (or set IMAGEFETCH_CONFIG)")
	return Registry.FillCommands(cmd)
}
