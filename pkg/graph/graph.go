package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
)

// =============================================================================
// Constants
// =============================================================================

// AnchorType is the primary label of anchor nodes. Anchors seed the visible
// set in data view: every document is shown together with its direct
// neighbours before the user expands anything.
const AnchorType = "Document"

// EntityLabel is the internal marker label the extraction pipeline adds to
// every entity. It carries no type information and is dropped from label lists
// returned by neighbour lookups.
const EntityLabel = "__Entity__"

// WildcardLabel replaces a label list that is empty after cleaning.
const WildcardLabel = "*"

var (
	// ErrMissingID is returned by [Graph.Validate] for a node without an element id.
	ErrMissingID = errors.New("node element_id must not be empty")

	// ErrDuplicateID is returned by [Graph.Validate] when two nodes share an element id.
	ErrDuplicateID = errors.New("duplicate node element_id")

	// ErrInvalidViewMode is returned by [ParseViewMode] for unknown modes.
	ErrInvalidViewMode = errors.New("invalid view mode")
)

// =============================================================================
// ViewMode
// =============================================================================

// ViewMode selects between the filtered instance graph and the unfiltered
// type-level graph.
type ViewMode string

const (
	// ViewData shows the instance graph with progressive disclosure.
	ViewData ViewMode = "data"
	// ViewSchema shows the complete supplied graph, unfiltered.
	ViewSchema ViewMode = "schema"
)

// ParseViewMode parses a view mode case-insensitively. The empty string maps
// to [ViewData].
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ViewData):
		return ViewData, nil
	case string(ViewSchema):
		return ViewSchema, nil
	default:
		return "", fmt.Errorf("%w: %q (must be 'data' or 'schema')", ErrInvalidViewMode, s)
	}
}

// =============================================================================
// Node and Edge
// =============================================================================

// Node is a graph record as supplied by the storage layer.
// Labels[0], when present, is the primary type used for styling.
type Node struct {
	ID         string     `json:"element_id" bson:"element_id"`
	Labels     []string   `json:"labels" bson:"labels"`
	Properties Properties `json:"properties" bson:"-"`
}

// PrimaryLabel returns the first label, or "" if the node has none.
func (n Node) PrimaryLabel() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// IsAnchor reports whether the node seeds visibility in data view.
func (n Node) IsAnchor() bool { return n.PrimaryLabel() == AnchorType }

// SelectorLabel is the name shown when offering the node for expansion:
// fileName, then id, then the element id.
func (n Node) SelectorLabel() string {
	for _, key := range []string{"fileName", "id"} {
		if v := n.Properties.Get(key); v.Truthy() {
			return v.String()
		}
	}
	return n.ID
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	ID     string `json:"element_id" bson:"element_id"`
	Source string `json:"start_node_element_id" bson:"start_node_element_id"`
	Target string `json:"end_node_element_id" bson:"end_node_element_id"`
	Type   string `json:"type" bson:"type"`
}

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id string) bool { return e.Source == id || e.Target == id }

// Other returns the endpoint opposite to id. If id is not an endpoint it
// returns "".
func (e Edge) Other(id string) string {
	switch id {
	case e.Source:
		return e.Target
	case e.Target:
		return e.Source
	default:
		return ""
	}
}

// =============================================================================
// Graph
// =============================================================================

// Graph is an ordered list of nodes and relationships. The same type carries
// raw storage results and derived visible subsets; derived subsets are never
// persisted.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"relationships"`
}

// NodeIDs returns the set of node element ids.
func (g Graph) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// Node looks up a node by element id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// IsEmpty reports whether the graph has no nodes.
func (g Graph) IsEmpty() bool { return len(g.Nodes) == 0 }

// Anchors returns the anchor nodes in input order.
func (g Graph) Anchors() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.IsAnchor() {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks that every node has a unique, non-empty element id.
// Edges are not checked: dangling edges are legal input and are filtered at
// render time.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrMissingID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

// Restrict returns the edges whose endpoints are both in ids, in input order.
func Restrict(edges []Edge, ids map[string]struct{}) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		if src && dst {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// ExpansionSet
// =============================================================================

// ExpansionSet is an immutable snapshot of the node ids the user has opened.
// The zero value is the empty set. Mutators return a new set.
type ExpansionSet struct {
	ids map[string]struct{}
}

// NewExpansionSet returns a set containing ids. Empty ids are ignored.
func NewExpansionSet(ids ...string) ExpansionSet {
	s := ExpansionSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is expanded.
func (s ExpansionSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded ids.
func (s ExpansionSet) Len() int { return len(s.ids) }

// IDs returns the expanded ids in sorted order.
func (s ExpansionSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// With returns a copy of s with id added.
func (s ExpansionSet) With(id string) ExpansionSet {
	return NewExpansionSet(append(s.IDs(), id)...)
}

// Without returns a copy of s with id removed.
func (s ExpansionSet) Without(id string) ExpansionSet {
	ids := s.IDs()
	return NewExpansionSet(slices.DeleteFunc(ids, func(x string) bool { return x == id })...)
}

// MarshalJSON writes the set as a sorted JSON array.
func (s ExpansionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON reads a JSON array of ids.
func (s *ExpansionSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewExpansionSet(ids...)
	return nil
}
