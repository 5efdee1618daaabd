package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/config"
	"github.com/matzehuels/tracetower/pkg/server"
	"github.com/matzehuels/tracetower/pkg/source"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		traceDir string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve traces and diagrams over HTTP",
		Long: `Serve traces and diagrams over HTTP.

Traces are read from MongoDB when a URI is configured ([mongo] uri or
TRACETOWER_MONGO_URI), otherwise from <trace-dir>/<id>.json. Artifacts are
cached in Redis when [cache] redis_addr is set.

Routes:
  GET  /healthz
  GET  /view?item_id=ID
  GET  /traces/{id}/{format}
  POST /render/{format}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if traceDir != "" {
				cfg.Server.TraceDir = traceDir
			}
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&traceDir, "trace-dir", "", "directory of <id>.json traces when no Mongo URI is set")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config, noCache bool) error {
	src, sourceName, err := c.openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close(context.WithoutCancel(ctx))

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	printInfo("Serving traces from %s", sourceName)
	printDetail("http://localhost%s/healthz", listenPort(cfg.Server.Addr))

	srv := server.New(runner, src, sourceName, cfg.PipelineOptions(), c.Logger)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// openSource returns the configured trace source and its cache label.
func (c *CLI) openSource(ctx context.Context, cfg config.Config) (source.Source, string, error) {
	if cfg.Mongo.URI != "" {
		src, err := source.NewMongoSource(ctx, cfg.SourceConfig())
		if err != nil {
			return nil, "", err
		}
		return src, "mongo", nil
	}
	return source.NewFileSource(cfg.Server.TraceDir), "file", nil
}

// listenPort returns the ":port" suffix of addr.
func listenPort(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ":" + port
}
