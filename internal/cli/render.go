package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/render"
	"github.com/matzehuels/graphscope/pkg/render/layout"
	"github.com/matzehuels/graphscope/pkg/render/nodelink"
	"github.com/matzehuels/graphscope/pkg/store"
)

// Output formats supported by the render command.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

var renderFormats = []string{FormatHTML, FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// renderOpts holds the flags of the render command.
type renderOpts struct {
	pipeline.Options

	formats  []string
	output   string
	detailed bool
	rankDir  string
	noCache  bool
	watch    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}
	var formats string

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render the visible part of a graph",
		Long: `Render the visible part of a graph to HTML, JSON, DOT, SVG, PNG or PDF.

Source documents and their direct neighbours are visible. Each --expand
reveals the direct neighbours of one more node. Without an argument the
graph is read from the store configured in config.toml.`,
		Example: `  graphscope render graph.json
  graphscope render graph.json --expand 4:abc:17 --layout cose -o view.html
  graphscope render graph.json --view schema -f html,svg
  graphscope render graph.json --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			opts.formats = parseList(formats)
			c.applyRenderFlags(cmd, &opts.Options)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			if opts.watch && input == "" {
				return fmt.Errorf("--watch needs a graph file argument")
			}

			ctx := withLogger(cmd.Context(), c.Logger)
			if err := c.runRender(ctx, input, &opts); err != nil {
				return err
			}
			if !opts.watch {
				return nil
			}
			return c.watchRender(ctx, input, &opts)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", FormatHTML, "output formats, comma separated ("+strings.Join(renderFormats, ", ")+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or - for stdout (default derived from input)")
	cmd.Flags().StringSliceVarP(&opts.Expanded, "expand", "e", nil, "element id to expand (repeatable)")
	cmd.Flags().StringVar(&opts.View, "view", "", "view mode: data or schema")
	cmd.Flags().StringVarP(&opts.Layout, "layout", "l", "", "layout: "+strings.Join(layout.Names(), ", "))
	cmd.Flags().IntVar(&opts.Height, "height", 0, "payload height in pixels")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show labels and properties in DOT/SVG nodes")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "LR", "Graphviz rank direction for DOT/SVG (TB, LR, BT, RL)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the graph file changes")

	return cmd
}

// applyRenderFlags fills options not given on the command line from config.
func (c *CLI) applyRenderFlags(cmd *cobra.Command, opts *pipeline.Options) {
	defaults := c.renderDefaults()
	if !cmd.Flags().Changed("layout") {
		opts.Layout = defaults.Layout
	}
	if !cmd.Flags().Changed("view") {
		opts.View = defaults.View
	}
	if !cmd.Flags().Changed("height") {
		opts.Height = defaults.Height
	}
	opts.Logger = c.Logger
}

func validateFormats(formats []string) error {
	if len(formats) == 0 {
		return fmt.Errorf("no output format given")
	}
	for _, f := range formats {
		if !slices.Contains(renderFormats, f) {
			return fmt.Errorf("unknown format: %s (must be one of: %s)", f, strings.Join(renderFormats, ", "))
		}
	}
	return nil
}

// runRender loads the graph, runs the pipeline and writes every requested
// format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	s, err := c.openStore(ctx, input, opts.noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	g, err := spin(ctx, "Loading graph", func() (graph.Graph, error) {
		return loadGraph(ctx, s, opts.ViewMode(), opts.Expanded)
	})
	if err != nil {
		return err
	}
	logger.Debug("loaded graph", "nodes", len(g.Nodes), "relationships", len(g.Edges))

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Render(ctx, g, opts.Options)
	if err != nil {
		return err
	}

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		data, err := renderFormat(ctx, res, format, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		explicit := opts.output != "" && len(opts.formats) == 1
		path, err := avoidInput(outputPath(opts.output, base, format, len(opts.formats)), input, base, format, explicit)
		if err != nil {
			return err
		}
		if err := c.writeOutput(path, data); err != nil {
			return err
		}
		if path != "-" {
			printFile(path)
		}
	}

	if opts.output != "-" {
		printStats(res.Stats.VisibleNodes, res.Stats.Relationships, res.CacheHit)
	}
	prog.done(fmt.Sprintf("Rendered %s", res.Stats))
	return nil
}

// watchRender re-renders input whenever it changes until ctx is done.
func (c *CLI) watchRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	rerender := func() {
		if err := c.runRender(ctx, input, opts); err != nil {
			logger.Error("render failed", "err", err)
		}
	}
	if err := watchFile(ctx, input, rerender); err != nil {
		return err
	}
	printInfo("Watching %s for changes (Ctrl+C to stop)", input)
	<-ctx.Done()
	return nil
}

// loadGraph reads the whole graph or the schema graph and merges in the
// neighbourhood of every expanded node, so expansions reach past what the
// store returns up front.
func loadGraph(ctx context.Context, s store.Store, mode graph.ViewMode, expanded []string) (graph.Graph, error) {
	if mode == graph.ViewSchema {
		return s.Schema(ctx)
	}
	g, err := s.Graph(ctx)
	if err != nil {
		return graph.Graph{}, err
	}
	logger := loggerFromContext(ctx)
	for _, id := range expanded {
		g = graph.Merge(g, store.FetchNeighbors(ctx, s, id, logger))
	}
	return g, nil
}

// renderFormat produces one output format from a pipeline result.
func renderFormat(ctx context.Context, res *pipeline.Result, format string, opts *renderOpts) ([]byte, error) {
	switch format {
	case FormatHTML:
		return []byte(res.Payload.HTML), nil
	case FormatJSON:
		return graph.MarshalGraph(res.Visible)
	}

	// Static formats draw the same capped subset the payload shows.
	nodes, edges, _ := layout.Cap(res.Visible.Nodes, res.Visible.Edges, opts.ViewMode())
	dot := nodelink.ToDOT(graph.Graph{Nodes: nodes, Edges: edges}, opts.ExpansionSet(), nodelink.Options{
		Detailed: opts.detailed,
		RankDir:  opts.rankDir,
		Colors:   opts.Colors,
	})
	if format == FormatDOT {
		return []byte(dot), nil
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPNG:
		return render.ToPNG(ctx, svg, 2.0)
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// basePath returns the output path without extension. An explicit output
// wins; otherwise it is derived from the input file name.
func basePath(output, input string) string {
	if output != "" && output != "-" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if input == "" {
		return "graph"
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// outputPath returns where one format is written. A single format honours
// an explicit output path, including "-" for stdout.
func outputPath(output, base, format string, count int) string {
	if count == 1 && output != "" {
		return output
	}
	return base + "." + format
}

// avoidInput keeps an output from replacing the graph it was rendered from.
// A derived path that collides moves to <base>.visible.<format>; an explicit
// output naming the input is refused.
func avoidInput(path, input, base, format string, explicit bool) (string, error) {
	if path == "-" || input == "" || !sameFile(path, input) {
		return path, nil
	}
	if explicit {
		return "", fmt.Errorf("output %s would overwrite the input graph, choose another -o", path)
	}
	return base + ".visible." + format, nil
}

func sameFile(a, b string) bool {
	if ai, err := os.Stat(a); err == nil {
		if bi, err := os.Stat(b); err == nil {
			return os.SameFile(ai, bi)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func (c *CLI) writeOutput(path string, data []byte) error {
	var w io.Writer = c.out
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
