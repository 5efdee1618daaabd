package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/pipeline"
)

// flowchartCommand creates the flowchart command.
func (c *CLI) flowchartCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "flowchart [trace.json | id]",
		Short: "Generate mermaid flowchart code for a trace",
		Long: `Generate mermaid flowchart code for a trace.

The flowchart starts at the root user node and follows precedence links.
Agents that contain nested calls become subgraphs, parallel groups are
emitted as branches of a shared subgraph, and the final output text is
attached to the last node within the output budget.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runArtifact(cmd, args[0], pipeline.FormatFlowchart, &flags)
		},
	}

	flags.register(cmd)
	flags.registerFlowchart(cmd)

	return cmd
}

// timelineCommand creates the timeline command.
func (c *CLI) timelineCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "timeline [trace.json | id]",
		Short: "Generate mermaid gantt code for a trace",
		Long: `Generate mermaid gantt code for a trace.

Nodes are grouped into one section per caller, in order of first
appearance. Every node becomes a task spanning its creation and update
times with a click binding that calls the configured handler.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runArtifact(cmd, args[0], pipeline.FormatTimeline, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.clickHandler, "click-handler", "", "function called by task click bindings")

	return cmd
}

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		flags renderFlags
		svg   bool
	)

	cmd := &cobra.Command{
		Use:   "dot [trace.json | id]",
		Short: "Export a trace as a Graphviz graph",
		Long: `Export a trace as a Graphviz graph.

Subgraph scopes become clusters, precedence edges are solid and
containment edges dashed. With --svg the graph is rendered to SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := pipeline.FormatDOT
			if svg {
				format = pipeline.FormatSVG
			}
			return c.runArtifact(cmd, args[0], format, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&svg, "svg", false, "render to SVG instead of DOT")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "show caller, callee and timestamps in node labels")
	cmd.Flags().StringVar(&flags.defaultModel, "default-model", "", "label for llm nodes without a callee")

	return cmd
}

// runArtifact loads the trace, renders one format and writes it.
func (c *CLI) runArtifact(cmd *cobra.Command, arg, format string, flags *renderFlags) error {
	ctx := cmd.Context()
	res, err := c.execute(ctx, arg, format, flags)
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), flags.output, res.Artifacts[format]); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if flags.output == "" {
		return nil
	}

	printSuccess("Generated %s", format)
	printFile(flags.output)
	printStats(res.Stats.NodeCount, len(res.Warnings), len(res.CacheInfo.Hits) > 0)
	return nil
}

// execute runs the pipeline for a single format.
func (c *CLI) execute(ctx context.Context, arg, format string, flags *renderFlags) (*pipeline.Result, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	opts, err := flags.options(cfg, format)
	if err != nil {
		return nil, err
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := c.loadTrace(ctx, runner, cfg, arg, flags.fromMongo, flags.refresh)
	if err != nil {
		return nil, err
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
	spinner.Start()

	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return nil, ctx.Err()
		}
		spinner.StopWithError("Rendering failed")
		return nil, userError(err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %s for %d nodes", format, res.Stats.NodeCount))
	return res, nil
}

// userError prefixes structural failures (empty, rootless, cyclic traces).
func userError(err error) error {
	if apperrors.IsStructural(apperrors.Classify(err)) {
		return fmt.Errorf("cannot render this trace: %w", err)
	}
	return err
}
