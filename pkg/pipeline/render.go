package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/layout"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/render/flowchart"
	"github.com/matzehuels/tracetower/pkg/render/nodelink"
	"github.com/matzehuels/tracetower/pkg/render/timeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Layout lays out the whole trace.
func Layout(ctx context.Context, g *trace.Graph, opts Options) (layout.Tree, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.Len())
	start := time.Now()
	tree, err := layout.New(g, opts.layoutOptions()).LayoutTrace()
	hooks.OnLayoutComplete(ctx, time.Since(start), err)
	return tree, err
}

// Render produces a single artifact. opts should already be validated.
func Render(ctx context.Context, g *trace.Graph, format string, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	data, err := render(ctx, g, format, opts)
	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	return data, err
}

func render(ctx context.Context, g *trace.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatLayout:
		tree, err := Layout(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := traceio.WriteLayout(tree, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatFlowchart:
		return []byte(flowchart.FromGraph(g, opts.flowchartOptions())), nil
	case FormatTimeline:
		return []byte(timeline.FromGraph(g, opts.timelineOptions())), nil
	case FormatDOT:
		return []byte(toDOT(g, opts)), nil
	case FormatSVG:
		return nodelink.RenderSVG(ctx, toDOT(g, opts))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func toDOT(g *trace.Graph, opts Options) string {
	return nodelink.ToDOT(g, nodelink.Options{
		Detailed:     opts.Detailed,
		DefaultModel: opts.DefaultModel,
	})
}
