// Package cli implements the tracetower command-line interface.
//
// Every rendering command takes a trace argument that is either a JSON file
// or, with --mongo, an id resolved against the recorder's node collection
// (a node id or a trace id). Render defaults come from the config file
// (see [config.Load]) and are overridden by flags.
//
// # Commands
//
//   - layout: print the Layout Tree of a trace (text tree or --json)
//   - flowchart: generate mermaid flowchart code
//   - timeline: generate mermaid gantt code
//   - dot: export the trace as Graphviz DOT (or --svg)
//   - inspect: tabular summary of the nodes and reference warnings
//   - view: interactive layout browser
//   - serve: run the HTTP API
//   - cache: manage the artifact cache
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/buildinfo"
	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/config"
	apperrors "github.com/matzehuels/tracetower/pkg/errors"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the XDG default.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level pipeline, cache
// and HTTP events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Register()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Tracetower lays out and diagrams agent execution traces",
		Long:         `Tracetower turns recorded agent traces into layout trees, mermaid flowcharts, gantt timelines and Graphviz graphs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/tracetower/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.flowchartCommand())
	root.AddCommand(c.timelineCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per process. Environment variables
// override the file.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyEnv()
	c.cfg = &cfg
	c.Logger.Debug("config loaded", "path", c.ConfigPath, "redis", cfg.Cache.RedisAddr != "", "mongo", cfg.Mongo.URI != "")
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache selects Redis when an address is configured, the file cache
// otherwise. An unusable cache directory disables caching instead of failing.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:   cfg.Cache.RedisAddr,
			DB:     cfg.Cache.RedisDB,
			Prefix: cfg.Cache.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Cache.RedisAddr, err)
		}
		return rc, nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Trace Loading
// =============================================================================

// loadTrace reads the trace named by arg. Files are read directly; with
// fromMongo, arg is an item id resolved through the recorder collection.
func (c *CLI) loadTrace(ctx context.Context, runner *pipeline.Runner, cfg config.Config, arg string, fromMongo, refresh bool) (traceio.Document, error) {
	if !fromMongo {
		doc, err := traceio.ImportJSON(arg)
		if err != nil {
			return traceio.Document{}, fmt.Errorf("load trace %s: %w", arg, err)
		}
		return doc, nil
	}

	src, err := source.NewMongoSource(ctx, cfg.SourceConfig())
	if err != nil {
		return traceio.Document{}, err
	}
	defer src.Close(context.WithoutCancel(ctx))

	doc, hit, err := runner.Load(ctx, src, "mongo", arg, refresh)
	if err != nil {
		return traceio.Document{}, err
	}
	c.Logger.Debug("trace loaded", "id", doc.TraceID, "nodes", len(doc.Nodes), "cached", hit)
	return doc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the render options shared by the artifact commands.
type renderFlags struct {
	output       string
	noCache      bool
	fromMongo    bool
	refresh      bool
	direction    string
	defaultModel string
	clickHandler string
	outputBudget int
	detailed     bool
	noDerive     bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.fromMongo, "mongo", false, "treat the argument as a trace or node id in MongoDB")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached traces and artifacts")
	cmd.Flags().BoolVar(&f.noDerive, "no-derive", false, "do not derive postIds/childIds from preIds/fatherId")
}

func (f *renderFlags) registerFlowchart(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.direction, "direction", "", "flowchart direction: TD, TB, BT, LR, RL")
	cmd.Flags().StringVar(&f.defaultModel, "default-model", "", "label for llm nodes without a callee")
	cmd.Flags().IntVar(&f.outputBudget, "output-budget", 0, "maximum characters of output text in the flowchart")
}

// options merges the flags over the configured render defaults.
func (f *renderFlags) options(cfg config.Config, formats ...string) (pipeline.Options, error) {
	opts := cfg.PipelineOptions(formats...)
	if f.direction != "" {
		opts.Direction = f.direction
	}
	if f.defaultModel != "" {
		opts.DefaultModel = f.defaultModel
	}
	if f.clickHandler != "" {
		opts.ClickHandler = f.clickHandler
	}
	if f.outputBudget != 0 {
		opts.OutputBudget = f.outputBudget
	}
	if f.noDerive {
		opts.DeriveLinks = false
	}
	opts.Detailed = f.detailed
	opts.Refresh = f.refresh

	if f.outputBudget < 0 {
		return pipeline.Options{}, fmt.Errorf("invalid output budget: %d", f.outputBudget)
	}
	if f.output != "" {
		if err := apperrors.ValidateOutputPath(f.output); err != nil {
			return pipeline.Options{}, fmt.Errorf("invalid output: %w", err)
		}
	}
	if err := opts.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
