package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/observability"
	"github.com/matzehuels/graphscope/pkg/render/elements"
	"github.com/matzehuels/graphscope/pkg/render/layout"
	"github.com/matzehuels/graphscope/pkg/render/payload"
)

// BuildVisualization emits the payload for an already visible subset.
//
// It always returns a renderable payload. An empty node list yields the
// empty-state document; a failure while mapping or encoding, including a
// panic, yields the error-state document and is logged on opts.Logger.
// Schema graphs are capped and unknown layouts fall back, each with a
// logged diagnostic.
func BuildVisualization(nodes []graph.Node, edges []graph.Edge, opts Options) payload.Payload {
	opts.SetDefaults()
	return build(context.Background(), nodes, edges, opts)
}

// build expects opts to have defaults applied.
func build(ctx context.Context, nodes []graph.Node, edges []graph.Edge, opts Options) (p payload.Payload) {
	logger := opts.Logger
	mode := opts.ViewMode()
	hooks := observability.Pipeline()
	start := time.Now()

	hooks.OnRenderStart(ctx, string(mode), len(nodes))
	defer func() {
		if r := recover(); r != nil {
			err := errors.New(errors.ErrCodeInternal, "%v", r)
			logger.Error("visualization failed", "panic", r)
			p = payload.Error(errors.UserMessage(err), opts.Height)
		}
		hooks.OnRenderComplete(ctx, string(mode), string(p.Kind), time.Since(start))
	}()

	if len(nodes) == 0 {
		logger.Debug("no nodes to display")
		return payload.Empty(opts.Height)
	}

	nodes, edges, sel := arrange(ctx, logger, nodes, edges, opts)

	els := elements.Map(nodes, edges, opts.ExpansionSet(), opts.Colors)
	p, err := payload.Graph(els, sel, mode, opts.Height)
	if err != nil {
		logger.Error("visualization failed", "err", err)
		return payload.Error(errors.UserMessage(err), opts.Height)
	}

	logger.Debug("built visualization",
		"layout", p.Layout,
		"nodes", p.Nodes,
		"relationships", p.Edges)
	return p
}

// arrange caps a schema subset and selects its layout, logging every
// diagnostic on the way.
func arrange(ctx context.Context, logger *log.Logger, nodes []graph.Node, edges []graph.Edge, opts Options) ([]graph.Node, []graph.Edge, layout.Selection) {
	mode := opts.ViewMode()
	nodes, edges, capped := layout.Cap(nodes, edges, mode)
	if capped != nil {
		logDiagnostic(ctx, logger, *capped)
	}
	sel := layout.Select(opts.Layout, mode, len(nodes))
	for _, d := range sel.Diagnostics {
		logDiagnostic(ctx, logger, d)
	}
	return nodes, edges, sel
}

func logDiagnostic(ctx context.Context, logger *log.Logger, d layout.Diagnostic) {
	observability.Pipeline().OnDiagnostic(ctx, d.Message)
	if d.Level == layout.LevelWarn {
		logger.Warn(d.Message, d.Fields...)
		return
	}
	logger.Info(d.Message, d.Fields...)
}
