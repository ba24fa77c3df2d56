package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dangdungcntt/go-csi/config"
	"github.com/dangdungcntt/go-csi/site"
	"github.com/dangdungcntt/go-csi/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [src] [dest]",
	Short: "Build, then rebuild whenever a source file changes",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Logging.Level)
		builder := site.NewBuilder(site.NewEngine(cfg, logger), cfg, logger, nil)
		return watchAndBuild(cmd.Context(), cfg, builder, logger)
	},
}

func init() {
	addCompilerFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

// watchAndBuild runs one build and then rebuilds on change until ctx ends.
// A failing build is logged and does not stop watching.
func watchAndBuild(ctx context.Context, cfg *config.Config, builder *site.Builder, logger *slog.Logger) error {
	rebuild := func() error {
		_, err := builder.Build(ctx)
		return err
	}
	if err := rebuild(); err != nil {
		logger.Error("Initial build failed", "error", err)
	}

	w, err := watch.New(cfg.Source, cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	return w.Watch(ctx, rebuild)
}
