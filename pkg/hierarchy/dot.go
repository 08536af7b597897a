// Package hierarchy renders the instance tree as a Graphviz diagram, for
// inspecting how a project's files mapped onto the DataModel.
package hierarchy

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/ludock/ludock/pkg/datamodel"
)

// Options configures tree diagram rendering.
type Options struct {
	// Detailed includes class names and property counts in node labels.
	// When false, only the instance name is shown.
	Detailed bool
}

// classFills groups classes into Graphviz fill colors so the diagram reads
// at a glance: services grey, geometry blue, scripts green, UI yellow.
func classFill(spec datamodel.ClassSpec) string {
	switch {
	case spec.Service:
		return "lightgrey"
	case spec.Renderable:
		return "lightblue"
	case spec.Gui:
		return "lightyellow"
	case spec.Name == datamodel.ClassScript,
		spec.Name == datamodel.ClassLocalScript,
		spec.Name == datamodel.ClassModuleScript:
		return "palegreen"
	default:
		return "white"
	}
}

// ToDOT converts the instance tree to Graphviz DOT format. Nodes are keyed
// by instance path, which is unique within one tree, and emitted in
// pre-order so the output is stable.
func ToDOT(root *datamodel.Instance, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph DataModel {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	root.Walk(func(i *datamodel.Instance) bool {
		label := fmtLabel(i, opts.Detailed)
		fill := "white"
		if spec, ok := datamodel.LookupClass(i.Class); ok {
			fill = classFill(spec)
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%s];\n", i.Path(), label, fill)
		return true
	})

	buf.WriteString("\n")
	root.Walk(func(i *datamodel.Instance) bool {
		if p := i.Parent(); p != nil {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p.Path(), i.Path())
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(i *datamodel.Instance, detailed bool) string {
	// The root displays under its canonical path name, matching how every
	// other artifact refers to it.
	name := i.Name
	if i.Parent() == nil {
		name = datamodel.RootPath
	}
	if !detailed {
		return name
	}
	parts := []string{name, i.Class}
	if n := len(i.Properties); n > 0 {
		parts = append(parts, fmt.Sprintf("%d props", n))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
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
