// Package graph provides the record types shared by every graphscope
// component: nodes, relationships, property values, and expansion sets.
//
// This package defines the canonical wire format for graph data as the
// storage layer returns it, used for JSON files, HTTP responses, caching,
// and the render pipeline.
//
// # Core Types
//
//   - [Graph]: Ordered nodes and relationships
//   - [Node], [Edge]: Storage records identified by element id
//   - [Properties], [Value]: Insertion-ordered scalar property bag
//   - [ExpansionSet]: Immutable set of node ids the user has opened
//   - [ViewMode]: Data view (filtered) or schema view (unfiltered)
//
// # Constants
//
//	graph.AnchorType     // "Document", the label that seeds data view
//	graph.EntityLabel    // "__Entity__", stripped by neighbour lookups
//	graph.WildcardLabel  // "*", used when no label remains
//
// # Serialization
//
// Graphs use the storage API's JSON shape:
//
//	{
//	  "nodes": [{"element_id": "d1", "labels": ["Document"], "properties": {"fileName": "a.pdf"}}],
//	  "relationships": [{"element_id": "r1", "start_node_element_id": "d1",
//	                     "end_node_element_id": "e1", "type": "MENTIONS"}]
//	}
//
// The storage envelope {"status": "Success", "data": {...}} is accepted
// on read. Property order survives a round trip.
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	graph.WriteGraphFile(g, "copy.json")
//	data, _ := graph.MarshalGraph(g)
//	parsed, _ := graph.UnmarshalGraph(data)
//
// # Neighbourhoods
//
// [Neighborhood] extracts the closed one-hop neighbourhood of a node, with
// heavy payload properties stripped. [Merge] folds such a result into an
// accumulated graph without duplicating records. [SchemaOf] derives a
// type-level graph for schema view.
package graph
