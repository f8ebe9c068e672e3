package graph

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to JSON bytes. Node and property order is
// preserved, so equal graphs always produce equal bytes.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph decodes JSON bytes into a Graph. See [ReadGraph] for the
// accepted shapes.
func UnmarshalGraph(data []byte) (Graph, error) {
	return readGraphFrom(bytes.NewReader(data))
}

// WriteGraph writes a graph as indented JSON to w.
func WriteGraph(g Graph, w io.Writer) error {
	return writeGraphTo(g, w, true)
}

// WriteGraphFile writes a graph to a JSON file. The file is replaced
// atomically, so a watcher never sees a partial write.
func WriteGraphFile(g Graph, path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".graph-*.json")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := writeGraphTo(g, f, true); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadGraph decodes a graph from r.
//
// Two shapes are accepted: a bare {"nodes": [...], "relationships": [...]}
// object, or the storage API envelope {"status": "Success", "data": {...}}.
// An envelope with a status other than "Success" is returned as an error
// carrying the envelope's message.
func ReadGraph(r io.Reader) (Graph, error) {
	return readGraphFrom(r)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

// envelope is the response shape of the storage API.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    *Graph `json:"data"`

	Graph
}

func writeGraphTo(g Graph, w io.Writer, indent bool) error {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (Graph, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return Graph{}, fmt.Errorf("decode: %w", err)
	}

	g := env.Graph
	if env.Status != "" {
		if env.Status != "Success" {
			msg := env.Message
			if msg == "" {
				msg = env.Error
			}
			return Graph{}, fmt.Errorf("storage responded %s: %s", env.Status, msg)
		}
		if env.Data != nil {
			g = *env.Data
		}
	}

	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}
