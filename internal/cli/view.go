package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/layout"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// outputPreview bounds the output text shown in the detail pane.
const outputPreview = 240

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// viewCommand creates the interactive layout browser.
func (c *CLI) viewCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "view [trace.json | id]",
		Short: "Browse the layout of a trace interactively",
		Long: `Browse the layout of a trace interactively.

Containers and parallel groups can be collapsed and expanded; the selected
node's caller, callee, timestamps and output are shown below the tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.execute(cmd.Context(), args[0], pipeline.FormatLayout, &flags)
			if err != nil {
				return err
			}
			var lt layout.Tree
			if err := json.Unmarshal(res.Artifacts[pipeline.FormatLayout], &lt); err != nil {
				return fmt.Errorf("decode layout: %w", err)
			}

			m := newViewModel(res.TraceID, lt, res.Graph)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.fromMongo, "mongo", false, "treat the argument as a trace or node id in MongoDB")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass cached traces and artifacts")
	cmd.Flags().StringVar(&flags.defaultModel, "default-model", "", "label for llm nodes without a callee")

	return cmd
}

// =============================================================================
// viewModel - Interactive layout browser
// =============================================================================

// viewRow is one visible line of the browser.
type viewRow struct {
	key   string
	depth int
	elem  layout.Element
}

func (r viewRow) expandable() bool { return len(r.elem.Children) > 0 }

// viewModel is the bubbletea model for browsing a Layout Tree.
type viewModel struct {
	title     string
	tree      layout.Tree
	graph     *trace.Graph
	collapsed map[string]bool
	rows      []viewRow
	cursor    int
	offset    int
	height    int
}

func newViewModel(title string, lt layout.Tree, g *trace.Graph) viewModel {
	if title == "" {
		title = lt.ContainerID
	}
	m := viewModel{
		title:     title,
		tree:      lt,
		graph:     g,
		collapsed: make(map[string]bool),
		height:    20,
	}
	m.refresh()
	return m
}

// refresh rebuilds the visible rows from the collapse state.
func (m *viewModel) refresh() {
	m.rows = nil
	m.flatten(m.tree.Elements, "", 0)
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.scroll()
}

func (m *viewModel) flatten(elems []layout.Element, parent string, depth int) {
	for i, e := range elems {
		if e.Kind == layout.KindConnector {
			continue
		}
		key := e.NodeID
		if key == "" {
			key = parent + "/" + strconv.Itoa(i)
		}
		m.rows = append(m.rows, viewRow{key: key, depth: depth, elem: e})
		if !m.collapsed[key] {
			m.flatten(e.Children, key, depth+1)
		}
	}
}

func (m *viewModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *viewModel) setCollapsed(collapsed bool) {
	if len(m.rows) == 0 {
		return
	}
	row := m.rows[m.cursor]
	if !row.expandable() || m.collapsed[row.key] == collapsed {
		return
	}
	m.collapsed[row.key] = collapsed
	m.refresh()
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.scroll()
			}
		case "enter", " ":
			if len(m.rows) > 0 {
				m.setCollapsed(!m.collapsed[m.rows[m.cursor].key])
			}
		case "left", "h":
			m.setCollapsed(true)
		case "right", "l":
			m.setCollapsed(false)
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-14, 5)
		m.scroll()
	}
	return m, nil
}

func (m viewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  ←/→ collapse/expand  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		marker := "  "
		if row.expandable() {
			marker = "▾ "
			if m.collapsed[row.key] {
				marker = "▸ "
			}
		}
		line := strings.Repeat("  ", row.depth) + marker + elementLabel(row.elem)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.rows)), len(m.rows))))
	if detail := m.detail(); detail != "" {
		b.WriteString("\n")
		b.WriteString(detailBoxStyle.Render(detail))
	}
	return b.String()
}

// detail describes the node under the cursor.
func (m viewModel) detail() string {
	if len(m.rows) == 0 || m.graph == nil {
		return ""
	}
	n, ok := m.graph.Node(m.rows[m.cursor].elem.NodeID)
	if !ok {
		return ""
	}

	var lines []string
	add := func(key, value string) {
		if value == "" {
			return
		}
		lines = append(lines, listDimStyle.Render(fmt.Sprintf("%-8s", key))+" "+StyleValue.Render(value))
	}
	add("id", n.ID)
	add("type", string(n.Type))
	add("caller", n.Caller)
	add("callee", n.Callee)
	add("parallel", n.ParallelGroup)
	add("scope", n.SubgraphPath)
	add("created", n.CreatedAt)
	add("updated", n.UpdatedAt)
	if n.Output != "" {
		out := strings.Join(strings.Fields(n.Output), " ")
		if len([]rune(out)) > outputPreview {
			out = trace.Truncate(out, outputPreview) + trace.Ellipsis
		}
		add("output", out)
	}
	return strings.Join(lines, "\n")
}
