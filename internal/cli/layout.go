package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/layout"
	"github.com/matzehuels/tracetower/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  renderFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "layout [trace.json | id]",
		Short: "Compute the Layout Tree of a trace",
		Long: `Compute the Layout Tree of a trace.

Nodes are placed frontier by frontier along precedence links. Members of a
parallel group share one parallel element, nodes with nested calls become
containers, and frontiers are separated by connectors.

The tree is printed as text; --json writes the layout document instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return c.runArtifact(cmd, args[0], pipeline.FormatLayout, &flags)
			}
			res, err := c.execute(cmd.Context(), args[0], pipeline.FormatLayout, &flags)
			if err != nil {
				return err
			}
			var lt layout.Tree
			if err := json.Unmarshal(res.Artifacts[pipeline.FormatLayout], &lt); err != nil {
				return fmt.Errorf("decode layout: %w", err)
			}
			out := renderLayoutTree(res.TraceID, lt) + "\n"
			return writeOutput(cmd.OutOrStdout(), flags.output, []byte(out))
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the layout as JSON")

	return cmd
}

// renderLayoutTree draws lt as an indented text tree. Connectors are
// implied by sibling order and not drawn.
func renderLayoutTree(title string, lt layout.Tree) string {
	if title == "" {
		title = lt.ContainerID
	}
	t := tree.Root(StyleTitle.Render(title)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleDim)
	addElements(t, lt.Elements)
	return t.String()
}

func addElements(t *tree.Tree, elems []layout.Element) {
	for _, e := range elems {
		switch e.Kind {
		case layout.KindConnector:
			continue
		case layout.KindLeaf:
			t.Child(elementLabel(e))
		default:
			sub := tree.Root(elementLabel(e))
			addElements(sub, e.Children)
			t.Child(sub)
		}
	}
}

// elementLabel renders the one-line label of e.
func elementLabel(e layout.Element) string {
	switch e.Kind {
	case layout.KindParallel:
		return StyleHighlight.Render("parallel") + " " + StyleDim.Render(e.Group)
	case layout.KindJoin:
		return StyleHighlight.Render("join")
	}
	label := typeStyle(e.Type).Render(e.Label)
	if e.Label != e.NodeID {
		label += " " + StyleDim.Render(e.NodeID)
	}
	if e.Kind == layout.KindContainer {
		label += " " + lipgloss.NewStyle().Foreground(colorGray).Render(fmt.Sprintf("[%d]", len(e.Children)))
	}
	return label
}
