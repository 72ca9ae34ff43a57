package render

import (
	"fmt"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/segment"
)

// Kind classifies graph nodes.
type Kind string

const (
	KindPart    Kind = "part"
	KindSegment Kind = "segment"
	KindVariant Kind = "variant"
	KindModel   Kind = "model"
	KindLayout  Kind = "layout"
)

// Node is one vertex of the option graph.
type Node struct {
	ID       string
	Label    string
	Kind     Kind
	Selected bool
	Meta     map[string]string
}

// Edge connects two node IDs.
type Edge struct {
	From, To string
}

// Graph is the option graph of one part.
type Graph struct {
	Name  string
	Nodes []Node
	Edges []Edge

	index map[string]int
	seen  map[Edge]bool
}

// NewGraph returns an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{Name: name, index: map[string]int{}, seen: map[Edge]bool{}}
}

// AddNode adds n unless a node with the same ID exists. A later add with
// Selected set marks the existing node selected.
func (g *Graph) AddNode(n Node) {
	if i, ok := g.index[n.ID]; ok {
		g.Nodes[i].Selected = g.Nodes[i].Selected || n.Selected
		return
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

// AddEdge adds a directed edge once.
func (g *Graph) AddEdge(from, to string) {
	e := Edge{From: from, To: to}
	if g.seen[e] {
		return
	}
	g.seen[e] = true
	g.Edges = append(g.Edges, e)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// FromAssembly builds the option graph of a started assembly.
func FromAssembly(a *assembly.Assembly) *Graph {
	name := a.Config().Name
	g := NewGraph(name)
	partID := "part:" + name
	g.AddNode(Node{ID: partID, Label: name, Kind: KindPart, Meta: map[string]string{
		"diameter": fmt.Sprintf("%g", a.Diameter()),
		"length":   fmt.Sprintf("%.3f", a.TotalLength()),
	}})

	for _, r := range segment.Roles {
		m := a.Module(r)
		segID := "segment:" + r.String()
		g.AddNode(Node{ID: segID, Label: r.Block(), Kind: KindSegment})
		g.AddEdge(partID, segID)

		if r != segment.Core {
			addModels(g, segID, m.ValidOptions(), m.Name())
			continue
		}
		for _, v := range a.Variants() {
			varID := "variant:" + v
			g.AddNode(Node{ID: varID, Label: v, Kind: KindVariant, Selected: v == a.Variant()})
			g.AddEdge(segID, varID)
			selected := ""
			if v == a.Variant() {
				selected = m.Name()
			}
			addModels(g, varID, a.VariantOptions(v), selected)
		}
	}
	return g
}

func addModels(g *Graph, parent string, opts []*model.LayoutOptions, selected string) {
	for _, o := range opts {
		def := o.Definition
		id := "model:" + def.Name
		g.AddNode(Node{ID: id, Label: def.Name, Kind: KindModel, Selected: def.Name == selected, Meta: map[string]string{
			"orientation": def.Orientation.String(),
			"height":      fmt.Sprintf("%g", def.Height),
			"diameter":    fmt.Sprintf("%g", def.Diameter),
		}})
		g.AddEdge(parent, id)
		for _, l := range o.Layouts() {
			lid := "layout:" + l.Name
			g.AddNode(Node{ID: lid, Label: l.Name, Kind: KindLayout, Meta: map[string]string{
				"positions": fmt.Sprintf("%d", len(l.Positions)),
			}})
			g.AddEdge(id, lid)
		}
	}
}
