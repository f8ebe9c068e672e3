package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Reserved property keys. They hold heavy payloads (vector embeddings, chunk
// text, community summaries) and are never shown on display surfaces.
const (
	KeyEmbedding = "embedding"
	KeyText      = "text"
	KeySummary   = "summary"
)

var reservedKeys = []string{KeyEmbedding, KeyText, KeySummary}

// IsReservedKey reports whether key is excluded from display surfaces.
func IsReservedKey(key string) bool {
	return slices.Contains(reservedKeys, key)
}

// Property is a single key/value pair of a node.
type Property struct {
	Key   string
	Value Value
}

// Properties is an insertion-ordered property bag.
//
// Order matters: tooltips list properties in the order the storage layer
// returned them, so the JSON codec preserves key order in both directions.
type Properties []Property

// Props builds Properties from alternating key/value arguments.
// Values are converted with [ValueOf]. It panics on an odd argument count.
func Props(kv ...any) Properties {
	if len(kv)%2 != 0 {
		panic("graph.Props: odd argument count")
	}
	p := make(Properties, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		p = p.Set(fmt.Sprint(kv[i]), ValueOf(kv[i+1]))
	}
	return p
}

// Get returns the value stored under key, or null if absent.
func (p Properties) Get(key string) Value {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value
		}
	}
	return Null()
}

// Has reports whether key is present.
func (p Properties) Has(key string) bool {
	return slices.ContainsFunc(p, func(prop Property) bool { return prop.Key == key })
}

// Set returns p with key set to v. An existing key keeps its position.
func (p Properties) Set(key string, v Value) Properties {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = v
			return p
		}
	}
	return append(p, Property{Key: key, Value: v})
}

// Without returns a copy of p with the given keys removed.
func (p Properties) Without(keys ...string) Properties {
	out := make(Properties, 0, len(p))
	for _, prop := range p {
		if !slices.Contains(keys, prop.Key) {
			out = append(out, prop)
		}
	}
	return out
}

// Clone returns a copy that shares no backing array with p.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}

// MarshalJSON writes the properties as a JSON object in insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Key)
		if err != nil {
			return nil, err
		}
		val, err := prop.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the key order of the input.
func (p *Properties) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}

	out := Properties{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("properties: expected key, got %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("properties: value for %q: %w", key, err)
		}
		out = out.Set(key, ValueOf(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}
