package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/render/elements"
)

// neighboursCommand creates the neighbours command.
func (c *CLI) neighboursCommand() *cobra.Command {
	var (
		input   string
		asJSON  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:     "neighbours <element-id>",
		Aliases: []string{"neighbors"},
		Short:   "Show the direct neighbours of a node",
		Long: `Show the one-hop neighbourhood of a node: the node itself, every node
connected to it and the relationships among them.`,
		Example: `  graphscope neighbours 4:abc:17 --graph graph.json
  graphscope neighbours 4:abc:17 --json > subset.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := errors.ValidateElementID(id); err != nil {
				return err
			}

			ctx := withLogger(cmd.Context(), c.Logger)
			s, err := c.openStore(ctx, input, noCache)
			if err != nil {
				return err
			}
			defer s.Close()

			g, err := spin(ctx, "Looking up neighbours", func() (graph.Graph, error) {
				return s.Neighbors(ctx, id)
			})
			if err != nil {
				return fmt.Errorf("neighbours of %s: %w", id, err)
			}

			if asJSON {
				return graph.WriteGraph(g, cmd.OutOrStdout())
			}
			return printNeighbourhood(cmd.OutOrStdout(), id, g)
		},
	}

	cmd.Flags().StringVarP(&input, "graph", "g", "", "graph file (default: configured store)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the neighbourhood as graph JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// printNeighbourhood writes the anchor node followed by tables of its
// neighbours and relationships.
func printNeighbourhood(w io.Writer, id string, g graph.Graph) error {
	if g.IsEmpty() {
		_, err := fmt.Fprintln(w, StyleDim.Render("No neighbours found for "+id))
		return err
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	border := lipgloss.NewStyle().Foreground(colorDim)

	nodeRows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeRows = append(nodeRows, []string{n.ID, strings.Join(n.Labels, ", "), elements.Caption(n)})
	}
	nodes := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers("Element ID", "Labels", "Caption").
		Rows(nodeRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == 0:
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	var b strings.Builder
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Neighbourhood of %s", id)))
	b.WriteString("\n")
	b.WriteString(nodes.Render())
	b.WriteString("\n")

	if len(g.Edges) > 0 {
		relRows := make([][]string, 0, len(g.Edges))
		for _, e := range g.Edges {
			relRows = append(relRows, []string{e.Source, e.Type, e.Target})
		}
		rels := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(border).
			Headers("Source", "Type", "Target").
			Rows(relRows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return StyleHighlight
				}
				return lipgloss.NewStyle()
			})
		b.WriteString(rels.Render())
		b.WriteString("\n")
	}

	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d relationships", len(g.Nodes), len(g.Edges))))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
