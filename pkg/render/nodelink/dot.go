package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nestree/pkg/nestedset"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// Formats lists the formats accepted by [Render].
var Formats = []string{FormatSVG, FormatPNG, FormatDOT}

// Options configures node-link diagram rendering.
type Options struct {
	// Direction is the Graphviz rankdir: "TB" (default) or "LR".
	Direction string

	// Labels shows node labels instead of identities.
	Labels bool

	// Intervals adds the lft/rgt interval and child count below each label.
	Intervals bool
}

// ToDOT converts an indexed collection to Graphviz DOT.
//
// Graph nodes are keyed by position id since identities need not be unique
// after unfolding. Copies created by unfolding are drawn dashed on a grey
// fill, leaves as ellipses. Edges run from ParentPositionID to PositionID.
func ToDOT(nodes []nestedset.Node, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts))
		fmt.Fprintf(&buf, "  %s [%s];\n", key(n.PositionID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		if n.ParentPositionID != 0 {
			fmt.Fprintf(&buf, "  %s -> %s;\n", key(n.ParentPositionID), key(n.PositionID))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func key(pid int) string { return "n" + strconv.Itoa(pid) }

func fmtLabel(n nestedset.Node, opts Options) string {
	label := n.ID
	if opts.Labels && n.Label != "" {
		label = n.Label
	}
	if !opts.Intervals {
		return label
	}
	return fmt.Sprintf("%s\n[%d, %d] count: %d", label, n.Left, n.Right, n.Count)
}

func fmtAttrs(n nestedset.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Leaf {
		attrs = append(attrs, "shape=ellipse")
	}
	if n.Origin != "" {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", fmt.Sprintf("tooltip=%q", "copy of "+n.Origin))
	}
	return attrs
}

// Render converts an indexed collection to the given format.
func Render(ctx context.Context, nodes []nestedset.Node, format string, opts Options) ([]byte, error) {
	dot := ToDOT(nodes, opts)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	}
	return nil, fmt.Errorf("unsupported render format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderGraphviz(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderGraphviz(ctx, dot, graphviz.PNG)
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root svg tag so the drawing scales with its
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
