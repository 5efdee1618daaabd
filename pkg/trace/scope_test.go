package trace

import (
	"reflect"
	"testing"
)

func TestParentScope(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a", ""},
		{"a.b", "a"},
		{"a.b.c", "a.b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParentScope(tt.path); got != tt.want {
			t.Errorf("ParentScope(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestScopes(t *testing.T) {
	g, err := Build([]Node{
		{ID: "n1"},
		{ID: "n2", SubgraphPath: "plan.search"},
		{ID: "n3", SubgraphPath: "plan"},
		{ID: "n4", SubgraphPath: "plan.search"},
		{ID: "n5", SubgraphPath: "review."},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []Scope{
		{Path: "plan", Members: []string{"n3"}},
		{Path: "plan.search", Parent: "plan", Members: []string{"n2", "n4"}},
		{Path: "review", Members: []string{"n5"}},
	}
	if got := g.Scopes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Scopes() = %+v, want %+v", got, want)
	}
	if got := g.ScopeOf("n5"); got != "review" {
		t.Errorf("ScopeOf(n5) = %q, want %q", got, "review")
	}
	if got := g.ScopeOf("n1"); got != "" {
		t.Errorf("ScopeOf(n1) = %q, want empty", got)
	}
}
