// Package format encodes and decodes world documents.
//
// Live documents are YAML (2-space indent, values always written in full).
// Snapshot records are a single indented JSON object.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/canon/pkg/core"
)

// Indent is the indentation width used by both codecs.
const Indent = 2

// Serializer converts between raw bytes and Go values.
type Serializer interface {
	// Decode parses data into out.
	Decode(data []byte, out any) error
	// Encode converts v to bytes.
	Encode(v any) ([]byte, error)
}

// YAMLSerializer is the codec for live documents.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

// Decode reads timestamp scalars as the literal text of the file, so a
// date survives a trip through JSON without changing type.
func (s *YAMLSerializer) Decode(data []byte, out any) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	if root.Kind == 0 {
		return nil
	}
	walkScalars(&root, func(n *yaml.Node) {
		if n.ShortTag() == timestampTag {
			n.Tag = strTag
		}
	})
	if err := root.Decode(out); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	return nil
}

// Encode never emits anchors or aliases: values are normalised to plain
// maps first, so shared values are written in full. Strings that read back
// as timestamps are written plain, mirroring Decode.
func (s *YAMLSerializer) Encode(v any) ([]byte, error) {
	var root yaml.Node
	if err := root.Encode(Normalize(v)); err != nil {
		return nil, err
	}
	walkScalars(&root, func(n *yaml.Node) {
		if n.Tag == strTag && isTimestamp(n.Value) {
			n.Tag = ""
			n.Style = 0
		}
	})

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(Indent)
	if err := encoder.Encode(&root); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	strTag       = "!!str"
	timestampTag = "!!timestamp"
)

func walkScalars(n *yaml.Node, fn func(*yaml.Node)) {
	if n.Kind == yaml.ScalarNode {
		fn(n)
		return
	}
	for _, c := range n.Content {
		walkScalars(c, fn)
	}
}

// isTimestamp reports whether s, written as a plain scalar, resolves to a
// YAML timestamp.
func isTimestamp(s string) bool {
	n := yaml.Node{Kind: yaml.ScalarNode, Value: s}
	return n.ShortTag() == timestampTag
}

// JSONSerializer is the codec for snapshot records.
type JSONSerializer struct{}

// NewJSONSerializer creates a JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func (s *JSONSerializer) Encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// DecodeDocument parses a YAML document. An empty file decodes to an empty
// document rather than nil.
func DecodeDocument(data []byte) (core.Document, error) {
	var payload map[string]any
	if err := NewYAMLSerializer().Decode(data, &payload); err != nil {
		return nil, err
	}
	doc := core.Document{}
	for k, v := range payload {
		doc[k] = Normalize(v)
	}
	return doc, nil
}

// EncodeDocument renders a document as YAML.
func EncodeDocument(doc core.Document) ([]byte, error) {
	if doc == nil {
		doc = core.Document{}
	}
	return NewYAMLSerializer().Encode(map[string]any(doc))
}

// Normalize converts YAML-decoded values into JSON-compatible ones:
// map[any]any becomes map[string]any, core.Document becomes a plain map and
// time.Time becomes its YAML text (a bare date when it has no clock part).
func Normalize(val any) any {
	switch v := val.(type) {
	case time.Time:
		if v.Equal(v.Truncate(24*time.Hour)) && v.Location() == time.UTC {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.RFC3339Nano)
	case core.Document:
		return Normalize(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = Normalize(val)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = Normalize(val)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, val := range v {
			l[i] = Normalize(val)
		}
		return l
	default:
		return v
	}
}
