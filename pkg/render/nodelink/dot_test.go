package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/trace"
)

func buildGraph(t *testing.T, nodes []trace.Node) *trace.Graph {
	t.Helper()
	g, err := trace.Build(nodes)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	g := buildGraph(t, []trace.Node{
		{ID: "u", Type: trace.TypeUser, ChildIDs: []string{"a"}, PostIDs: []string{"o"}},
		{ID: "a", Type: trace.TypeAgent, Callee: "planner", FatherID: "u", SubgraphPath: "plan"},
		{ID: "t", Type: trace.TypeTool, Callee: "search", SubgraphPath: "plan.web", ParallelGroup: "p"},
		{ID: "o", Type: trace.TypeOutput, PreIDs: []string{"u"}},
	})
	dot := ToDOT(g, Options{})

	for _, want := range []string{
		"digraph G {",
		`"u" [label="u", shape=ellipse`,
		`subgraph "cluster_0" {`,
		`label="plan";`,
		`subgraph "cluster_0_0" {`,
		`label="plan.web";`,
		`"a" [label="planner"`,
		`"t" [label="search", shape=component, fillcolor="#bbf7d0", penwidth=2];`,
		`"u" -> "o";`,
		`"u" -> "a" [style=dashed`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if n := strings.Count(dot, `"u" -> "o";`); n != 1 {
		t.Errorf("precedence edge emitted %d times, want 1", n)
	}
	if strings.Index(dot, `subgraph "cluster_0_0"`) < strings.Index(dot, `subgraph "cluster_0"`) {
		t.Error("nested cluster should follow its parent")
	}
}

func TestToDOT_Options(t *testing.T) {
	g := buildGraph(t, []trace.Node{
		{ID: "a", Type: trace.TypeAgent, Caller: "user", Callee: "master", CreatedAt: "2025-01-01 00:00:00", ChildIDs: []string{"b"}},
		{ID: "b", Type: trace.TypeLLM, FatherID: "a"},
	})

	dot := ToDOT(g, Options{Detailed: true, HideContainment: true, DefaultModel: "gpt-4o"})
	if !strings.Contains(dot, `label="master\ncaller: user\nstart: 2025-01-01 00:00:00"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `label="gpt-4o"`) {
		t.Errorf("default model label missing:\n%s", dot)
	}
	if strings.Contains(dot, "dashed") {
		t.Errorf("containment edges should be hidden:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() without viewBox = %s, want unchanged", got)
	}
}
