// Package payload emits the self-contained HTML documents a host displays:
// the interactive graph, the empty state, and the error state.
//
// The graph document embeds its elements and layout parameters as JSON in a
// script block. [ScriptJSON] neutralizes every sequence that could end that
// block early, so element data cannot inject markup even when the encoder's
// own HTML escaping is off.
package payload

import (
	"bytes"
	"fmt"
	"html/template"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/render/elements"
	"github.com/matzehuels/graphscope/pkg/render/layout"
)

// Kind identifies the payload variant.
type Kind string

const (
	KindGraph Kind = "graph"
	KindEmpty Kind = "empty"
	KindError Kind = "error"
)

// Fixed texts of the message documents.
const (
	EmptyHeading = "No Graph Data"
	EmptyMessage = "No nodes to display. Upload and extract documents first."
	ErrorHeading = "Visualization Error"
)

// DefaultHeight is used when a non-positive height is supplied.
const DefaultHeight = 720

// Payload is a renderable document.
type Payload struct {
	Kind Kind   `json:"kind"`
	HTML string `json:"html"`

	// Message is the text shown by empty and error payloads.
	Message string `json:"message,omitempty"`
	// Layout is the resolved layout of a graph payload.
	Layout string `json:"layout,omitempty"`
	// Nodes and Edges count the embedded elements of a graph payload.
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

var (
	graphTmpl   = template.Must(template.New("graph").Parse(graphHTML))
	messageTmpl = template.Must(template.New("message").Parse(messageHTML))
)

// Graph builds the interactive graph document.
func Graph(els elements.Elements, sel layout.Selection, mode graph.ViewMode, height int) (Payload, error) {
	elementsJSON, err := ScriptJSON(els)
	if err != nil {
		return Payload{}, fmt.Errorf("encode elements: %w", err)
	}
	layoutJSON, err := ScriptJSON(sel.Params)
	if err != nil {
		return Payload{}, fmt.Errorf("encode layout: %w", err)
	}

	var buf bytes.Buffer
	err = graphTmpl.Execute(&buf, struct {
		View     string
		Height   int
		Scripts  []string
		Elements template.JS
		Layout   template.JS
	}{
		View:     string(mode),
		Height:   normalizeHeight(height),
		Scripts:  scripts,
		Elements: template.JS(elementsJSON),
		Layout:   template.JS(layoutJSON),
	})
	if err != nil {
		return Payload{}, fmt.Errorf("render graph document: %w", err)
	}

	return Payload{
		Kind:   KindGraph,
		HTML:   buf.String(),
		Layout: sel.Name,
		Nodes:  len(els.Nodes),
		Edges:  len(els.Edges),
	}, nil
}

// Empty builds the empty-state document.
func Empty(height int) Payload {
	return Payload{
		Kind:    KindEmpty,
		HTML:    message("empty", EmptyHeading, EmptyMessage, height),
		Message: EmptyMessage,
	}
}

// Error builds the error-state document showing msg, escaped.
func Error(msg string, height int) Payload {
	return Payload{
		Kind:    KindError,
		HTML:    message("error", ErrorHeading, msg, height),
		Message: msg,
	}
}

func message(class, heading, msg string, height int) string {
	var buf bytes.Buffer
	err := messageTmpl.Execute(&buf, struct {
		Class, Heading, Message string
		Height                  int
	}{class, heading, msg, normalizeHeight(height)})
	if err != nil {
		// the template only interpolates strings and an int
		panic(fmt.Sprintf("payload: message template: %v", err))
	}
	return buf.String()
}

func normalizeHeight(h int) int {
	if h <= 0 {
		return DefaultHeight
	}
	return h
}

var scriptReplacer = []struct{ old, new []byte }{
	{[]byte("</"), []byte(`<\/`)},
	{[]byte("<!--"), []byte(`\u003c!--`)},
	{[]byte("\u2028"), []byte(`\u2028`)},
	{[]byte("\u2029"), []byte(`\u2029`)},
}

// ScriptJSON encodes v as JSON that is safe to place verbatim inside an
// HTML script element.
//
// HTML escaping is disabled so that pre-escaped entities such as &lt; survive
// unchanged; the only rewrites are "</" to "<\/", "<!--" to "\u003c!--", and
// the line separators U+2028 and U+2029 to their escapes. All rewrites are
// valid JSON string escapes and decode to the original text.
func ScriptJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	for _, r := range scriptReplacer {
		out = bytes.ReplaceAll(out, r.old, r.new)
	}
	return out, nil
}
