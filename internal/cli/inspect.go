package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/trace"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "inspect [trace.json | id]",
		Short: "Summarize the nodes of a trace",
		Long: `Summarize the nodes of a trace.

Prints one row per node with its display name, caller, parent and scope,
followed by references to nodes that are not part of the trace.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], &flags)
		},
	}

	cmd.Flags().BoolVar(&flags.fromMongo, "mongo", false, "treat the argument as a trace or node id in MongoDB")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass the cached trace")
	cmd.Flags().BoolVar(&flags.noDerive, "no-derive", false, "do not derive postIds/childIds from preIds/fatherId")
	cmd.Flags().StringVar(&flags.defaultModel, "default-model", "", "label for llm nodes without a callee")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, arg string, flags *renderFlags) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := c.loadTrace(ctx, runner, cfg, arg, flags.fromMongo, flags.refresh)
	if err != nil {
		return err
	}
	g, err := runner.Prepare(doc.Nodes, opts)
	if err != nil {
		return userError(err)
	}

	if doc.TraceID != "" {
		printKeyValue("Trace", doc.TraceID)
	}
	printKeyValue("Nodes", strconv.Itoa(g.Len()))
	printKeyValue("Roots", strings.Join(g.Roots(), ", "))
	printKeyValue("Scopes", strconv.Itoa(len(g.Scopes())))
	printNewline()
	fmt.Fprintln(cmd.OutOrStdout(), nodeTable(g, opts.DefaultModel))

	if warnings := g.Warnings(); len(warnings) > 0 {
		printNewline()
		for _, w := range warnings {
			printWarning("%s", w)
		}
	}
	return nil
}

// nodeTable renders one row per node in recording order.
func nodeTable(g *trace.Graph, defaultModel string) string {
	nodes := g.Nodes()
	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			n.ID,
			string(n.Type),
			trace.DisplayName(n, defaultModel),
			n.Caller,
			n.FatherID,
			n.SubgraphPath,
			n.CreatedAt,
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "ID", "Type", "Name", "Caller", "Parent", "Scope", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 0:
				return base.Foreground(colorDim)
			case 2, 3:
				if row < len(nodes) {
					return base.Inherit(typeStyle(nodes[row].Type))
				}
			case 7:
				return base.Foreground(colorGray)
			}
			return base
		})
	return t.Render()
}
