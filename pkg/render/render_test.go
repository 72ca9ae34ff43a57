package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/part"
)

const catalog = `
layout "default" {
  position {}
}
layout "quad" {
  position { position = [1, 0, 0] }
  position { position = [-1, 0, 0] }
  position { position = [0, 0, 1] }
  position { position = [0, 0, -1] }
}

model "tube-long" {
  diameter = 2
  height   = 4
}
model "tube-short" {
  diameter = 2
  height   = 2
  layouts  = ["default", "quad"]
}
model "cone" {
  orientation    = "top"
  diameter       = 2
  upper_diameter = 1
  height         = 1
}
model "dome" {
  orientation    = "top"
  diameter       = 2
  upper_diameter = 0.5
  height         = 1
}
model "skirt" {
  orientation = "bottom"
  diameter    = 2
  height      = 0.5
}

part "stack" {
  diameter = 2
  NOSE  { model = ["cone", "dome"] }
  CORE  {
    variant = "Long"
    model   = ["tube-long"]
  }
  CORE  {
    variant = "Short"
    model   = ["tube-short"]
  }
  MOUNT { model = ["skirt"] }
}
`

func newAssembly(t *testing.T) *assembly.Assembly {
	t.Helper()
	src := cfgtree.Bytes([]byte(catalog), "catalog.hcl")
	reg := model.NewRegistry(src, layout.NewCatalog(src, nil), nil)
	require.NoError(t, reg.Load())
	root, err := cfgtree.Parse([]byte(catalog), "catalog.hcl")
	require.NoError(t, err)
	cfg, err := assembly.LoadConfig(root, "stack")
	require.NoError(t, err)
	a := assembly.New(part.New("stack", nil), cfg, reg, nil)
	require.NoError(t, a.Start())
	return a
}

func TestFromAssembly(t *testing.T) {
	g := FromAssembly(newAssembly(t))

	for _, id := range []string{
		"part:stack", "segment:nose", "segment:core", "segment:mount",
		"variant:Long", "variant:Short",
		"model:cone", "model:dome", "model:tube-long", "model:tube-short", "model:skirt",
		"layout:default", "layout:quad",
	} {
		if _, ok := g.Node(id); !ok {
			t.Errorf("Node(%q) missing", id)
		}
	}

	tests := []struct {
		id       string
		selected bool
	}{
		{"variant:Long", true},
		{"variant:Short", false},
		{"model:cone", true},
		{"model:dome", false},
		{"model:tube-long", true},
		{"model:tube-short", false},
	}
	for _, tt := range tests {
		n, _ := g.Node(tt.id)
		if n.Selected != tt.selected {
			t.Errorf("%s Selected = %v, want %v", tt.id, n.Selected, tt.selected)
		}
	}
}

func TestFromAssemblyAfterVariantSwitch(t *testing.T) {
	a := newAssembly(t)
	require.NoError(t, a.SelectVariant("Short"))
	g := FromAssembly(a)

	if n, _ := g.Node("model:tube-short"); !n.Selected {
		t.Errorf("tube-short not selected after switch")
	}
	if n, _ := g.Node("variant:Long"); n.Selected {
		t.Errorf("Long still selected after switch")
	}
}

func TestGraphDedupe(t *testing.T) {
	g := NewGraph("g")
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "a", Selected: true})
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")

	if len(g.Nodes) != 1 {
		t.Errorf("len(Nodes) = %d, want 1", len(g.Nodes))
	}
	if !g.Nodes[0].Selected {
		t.Errorf("Selected = false, want true")
	}
	if len(g.Edges) != 1 {
		t.Errorf("len(Edges) = %d, want 1", len(g.Edges))
	}
}

func TestToDOT(t *testing.T) {
	g := FromAssembly(newAssembly(t))

	dot := ToDOT(g, Options{})
	for _, want := range []string{
		`digraph "stack" {`,
		"rankdir=TB;",
		`"segment:core" -> "variant:Short";`,
		`"model:tube-short" -> "layout:quad";`,
		`fillcolor="#ffe08a"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if strings.Contains(dot, "orientation: top") {
		t.Errorf("ToDOT() without Detailed should not include metadata")
	}

	detailed := ToDOT(g, Options{Detailed: true, Horizontal: true})
	if !strings.Contains(detailed, "rankdir=LR;") {
		t.Errorf("Horizontal layout not applied")
	}
	if !strings.Contains(detailed, `orientation: top`) {
		t.Errorf("Detailed labels missing metadata")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no viewBox", `<svg width="1"></svg>`, `<svg width="1"></svg>`},
		{"zero size", `<svg viewBox="0 0 0 10"></svg>`, `<svg viewBox="0 0 0 10"></svg>`},
		{
			"rewritten",
			`<svg width="62pt" viewBox="0.00 0.00 62.00 44.00"></svg>`,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 44.00" width="62" height="44"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.svg", FormatSVG},
		{"out.DOT", FormatDOT},
		{"out.gv", FormatDOT},
		{"out", FormatSVG},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	g := FromAssembly(newAssembly(t))
	ctx := context.Background()

	dot, err := Render(ctx, g, FormatDOT, Options{})
	require.NoError(t, err)
	if !bytes.HasPrefix(dot, []byte("digraph")) {
		t.Errorf("Render(dot) = %q...", dot[:10])
	}

	svg, err := Render(ctx, g, FormatSVG, Options{})
	require.NoError(t, err)
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("Render(svg) produced no svg element")
	}

	if _, err := Render(ctx, g, Format("pdf"), Options{}); err == nil {
		t.Errorf("Render(pdf) error = nil, want error")
	}
}
