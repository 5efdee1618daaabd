package timeline

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/tracetower/pkg/trace"
)

const (
	// ChartDirective is the first line of every timeline.
	ChartDirective = "gantt"
	// DateFormatDirective declares the layout produced by [FormatTimestamp].
	DateFormatDirective = "dateFormat YYYY-MM-DD HH:mm:ss.SSS"
	// DefaultClickHandler is the callback bound to tasks when none is set.
	DefaultClickHandler = "onTaskClick"
	// DefaultSection names the section of nodes without a caller.
	DefaultSection = "user"
)

// Options configures timeline generation.
type Options struct {
	// DefaultModel labels llm nodes without a callee.
	DefaultModel string
	// ClickHandler is the callback bound to every task. Defaults to
	// [DefaultClickHandler].
	ClickHandler string
}

// Generate renders nodes as gantt markup: one section per distinct caller
// in first-seen order, each followed by its task and click lines.
//
// A missing end time falls back to the start time and vice versa; nodes
// without any timestamp are left out, and a caller whose nodes are all left
// out gets no section header. Generate fails with
// [trace.ErrEmptyGraph] for an empty list.
func Generate(nodes []trace.Node, opts Options) (string, error) {
	g, err := trace.Build(nodes)
	if err != nil {
		return "", err
	}
	return FromGraph(g, opts), nil
}

// FromGraph renders an already indexed trace.
func FromGraph(g *trace.Graph, opts Options) string {
	handler := opts.ClickHandler
	if handler == "" {
		handler = DefaultClickHandler
	}

	var sections []string
	tasks := make(map[string][]*trace.Node)
	for _, n := range g.Nodes() {
		caller := sectionName(n.Caller)
		if _, ok := tasks[caller]; !ok {
			sections = append(sections, caller)
			tasks[caller] = nil
		}
		tasks[caller] = append(tasks[caller], n)
	}

	ids := newTaskIDs()
	var buf bytes.Buffer
	buf.WriteString(ChartDirective + "\n")
	buf.WriteString("    " + DateFormatDirective + "\n")
	for _, s := range sections {
		var body bytes.Buffer
		for _, n := range tasks[s] {
			start, end, ok := span(n)
			if !ok {
				continue
			}
			id := ids.get(n.ID)
			fmt.Fprintf(&body, "    %s :%s, %s, %s\n", taskLabel(n, opts.DefaultModel), id, start, end)
			fmt.Fprintf(&body, "    click %s call %s(%s)\n", id, handler, id)
		}
		if body.Len() == 0 {
			continue
		}
		fmt.Fprintf(&buf, "    section %s\n", s)
		buf.Write(body.Bytes())
	}
	return buf.String()
}

func span(n *trace.Node) (start, end string, ok bool) {
	start, end = FormatTimestamp(n.CreatedAt), FormatTimestamp(n.UpdatedAt)
	switch {
	case start == "" && end == "":
		return "", "", false
	case start == "":
		start = end
	case end == "":
		end = start
	}
	return start, end, true
}

func sectionName(caller string) string {
	if s := sanitizeText(caller); s != "" {
		return s
	}
	return DefaultSection
}

func taskLabel(n *trace.Node, defaultModel string) string {
	label := sanitizeText(n.Callee)
	if label == "" {
		label = sanitizeText(trace.DisplayName(n, defaultModel))
	}
	if label == "" {
		return string(n.Type)
	}
	return label
}

var textCleaner = strings.NewReplacer(
	":", "-",
	"#", "",
	";", ",",
	"\r", "",
	"\n", " ",
)

// sanitizeText strips characters that would end a gantt label or section
// name early.
func sanitizeText(s string) string {
	return strings.TrimSpace(textCleaner.Replace(s))
}

// taskIDs maps node ids to unique gantt task ids.
type taskIDs struct {
	taken map[string]bool
	ids   map[string]string
}

func newTaskIDs() *taskIDs {
	return &taskIDs{taken: make(map[string]bool), ids: make(map[string]string)}
}

func (t *taskIDs) get(id string) string {
	if safe, ok := t.ids[id]; ok {
		return safe
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	base := b.String()
	if base == "" {
		base = "task"
	}
	safe := base
	for i := 2; t.taken[safe]; i++ {
		safe = base + "_" + strconv.Itoa(i)
	}
	t.taken[safe] = true
	t.ids[id] = safe
	return safe
}

// timestampLayout is the Go layout matching [DateFormatDirective].
const timestampLayout = "2006-01-02 15:04:05.000"

var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormatTimestamp rewrites a recorder timestamp as
// "YYYY-MM-DD HH:MM:SS.mmm". The fractional part is cut or zero-padded to
// exactly three digits, and "000" is used when there is none. A "T"
// between date and time is accepted and a trailing zone is dropped.
//
// Values that do not start with a date and time are parsed with a few
// common layouts; anything else is returned trimmed but otherwise
// unchanged.
func FormatTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	const secondsLen = len("2006-01-02 15:04:05")
	if len(s) >= secondsLen {
		head := s[:secondsLen]
		if head[10] == 'T' {
			head = head[:10] + " " + head[11:]
		}
		if _, err := time.Parse("2006-01-02 15:04:05", head); err == nil {
			return head + "." + millis(s[secondsLen:])
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(timestampLayout)
		}
	}
	return s
}

// millis extracts three millisecond digits from the text following the
// seconds, e.g. ".1" -> "100", ".123456789+08:00" -> "123".
func millis(rest string) string {
	if !strings.HasPrefix(rest, ".") && !strings.HasPrefix(rest, ",") {
		return "000"
	}
	digits := rest[1:]
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	digits = digits[:end]
	if len(digits) >= 3 {
		return digits[:3]
	}
	return digits + strings.Repeat("0", 3-len(digits))
}
