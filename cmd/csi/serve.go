package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dangdungcntt/go-csi/server"
	"github.com/dangdungcntt/go-csi/site"
)

var (
	serveAddr  string
	serveBuild bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [src] [dest]",
	Short: "Serve the source tree, compiling templates on every request",
	Long: `Serve the source tree over HTTP. Templates are compiled on every request,
query parameters become variables, and /metrics exposes Prometheus metrics.

With --build the destination tree is also built and kept up to date while
serving.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Serve.Address = serveAddr
		}
		logger := newLogger(cfg.Logging.Level)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		engine := site.NewEngine(cfg, logger)
		builder := site.NewBuilder(engine, cfg, logger, site.NewMetrics(reg))
		srv := server.New(engine, cfg.Source, builder.IsTemplate, reg, logger)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.Serve.Address)
		})
		if serveBuild {
			g.Go(func() error {
				return watchAndBuild(ctx, cfg, builder, logger)
			})
		}
		return g.Wait()
	},
}

func init() {
	addCompilerFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveBuild, "build", false, "also build and watch the destination tree")
	rootCmd.AddCommand(serveCmd)
}
