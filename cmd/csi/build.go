package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dangdungcntt/go-csi/config"
	"github.com/dangdungcntt/go-csi/site"
)

var (
	buildExts     []string
	buildLenient  bool
	buildMaxDepth int
)

var buildCmd = &cobra.Command{
	Use:   "build [src] [dest]",
	Short: "Compile a source tree into a destination tree",
	Long: `Compile every template in the source tree and copy every other file.

The build stops at the first error and writes nothing if any template fails
to compile.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBuild,
}

func init() {
	addCompilerFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func addCompilerFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&buildExts, "ext", nil, "file name suffix to compile (repeatable)")
	cmd.Flags().BoolVar(&buildLenient, "lenient", false, "expand unrecognized directives to nothing")
	cmd.Flags().IntVar(&buildMaxDepth, "max-depth", 0, "maximum include nesting")
}

// buildConfig merges config file, positional arguments and flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	applyDirs(cfg, args)
	if len(buildExts) > 0 {
		cfg.Extensions = buildExts
	}
	if cmd.Flags().Changed("lenient") {
		cfg.Compiler.Lenient = buildLenient
	}
	if buildMaxDepth != 0 {
		cfg.Compiler.MaxDepth = buildMaxDepth
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	builder := site.NewBuilder(site.NewEngine(cfg, logger), cfg, logger, nil)
	report, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Built %s: %d compiled, %d copied in %s\n",
		cfg.Destination, report.Compiled, report.Copied, report.Duration.Round(time.Millisecond))
	return nil
}
