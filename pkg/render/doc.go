// Package render draws the option graph of an assembly with Graphviz.
//
// # Overview
//
// A part offers a set of models per segment. The core segment groups its
// models into variants, and every model resolves to one or more layouts.
// [FromAssembly] collects that structure into a [Graph], [ToDOT] writes it
// as DOT source, and [RenderSVG] lays it out in-process:
//
//	g := render.FromAssembly(a)
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// The currently selected variant and models are filled so the active
// configuration stands out.
//
// # Dependencies
//
// SVG rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz
// as WebAssembly; no system install is needed.
package render
