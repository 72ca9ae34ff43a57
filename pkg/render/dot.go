package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds node metadata to labels.
	Detailed bool
	// Horizontal lays the graph out left to right.
	Horizontal bool
}

var shapes = map[Kind]string{
	KindPart:    "doubleoctagon",
	KindSegment: "box",
	KindVariant: "folder",
	KindModel:   "box",
	KindLayout:  "ellipse",
}

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *Graph, opts Options) string {
	rankdir := "TB"
	if opts.Horizontal {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", g.Name)
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	if !detailed || len(n.Meta) == 0 {
		return n.Label
	}
	parts := make([]string, 0, len(n.Meta))
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, n.Meta[k]))
	}
	return n.Label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if s, ok := shapes[n.Kind]; ok {
		attrs = append(attrs, "shape="+s)
	}
	switch {
	case n.Selected:
		attrs = append(attrs, "fillcolor=\"#ffe08a\"", "penwidth=2")
	case n.Kind == KindLayout:
		attrs = append(attrs, "style=\"filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG lays out DOT source and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the drawing scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Format is a graph output format.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// FormatFromPath picks the format from a file extension, defaulting to SVG.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".dot") || strings.HasSuffix(strings.ToLower(path), ".gv") {
		return FormatDOT
	}
	return FormatSVG
}

// Render produces g in the requested format.
func Render(ctx context.Context, g *Graph, f Format, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch f {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q", f)
}
