package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/scribble/pkg/core"
)

// contentKey holds the body in formats without a separate body section.
const contentKey = "content"

// record is the format-neutral content of a file: decoded fields and body.
type record struct {
	Fields map[string]any
	Body   string
}

// Serializer reads and writes one file format.
type Serializer interface {
	Parse(data []byte) (record, error)
	Serialize(rec record) ([]byte, error)
}

// DefaultSerializers returns the serializers keyed by file extension.
func DefaultSerializers() map[string]Serializer {
	yml := YAMLSerializer{}
	return map[string]Serializer{
		".md":   MarkdownSerializer{},
		".json": JSONSerializer{},
		".yaml": yml,
		".yml":  yml,
	}
}

// MarkdownSerializer stores fields as YAML frontmatter followed by the body.
type MarkdownSerializer struct{}

func (MarkdownSerializer) Parse(data []byte) (record, error) {
	rec := record{Fields: map[string]any{}}

	first, rest, found := cutLine(data)
	if !found || strings.TrimRight(string(first), "\r") != "---" {
		rec.Body = string(data)
		return rec, nil
	}

	var front []byte
	for len(rest) > 0 {
		line, tail, _ := cutLine(rest)
		if strings.TrimRight(string(line), "\r") == "---" {
			if err := yaml.Unmarshal(front, &rec.Fields); err != nil {
				return record{}, fmt.Errorf("parse frontmatter: %w", err)
			}
			if rec.Fields == nil {
				rec.Fields = map[string]any{}
			}
			rec.Body = string(tail)
			return rec, nil
		}
		front = append(front, line...)
		front = append(front, '\n')
		rest = tail
	}
	return record{}, errors.New("frontmatter started but no closing delimiter found")
}

func (MarkdownSerializer) Serialize(rec record) ([]byte, error) {
	var buf bytes.Buffer
	if len(rec.Fields) > 0 {
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(rec.Fields); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	}
	buf.WriteString(rec.Body)
	return buf.Bytes(), nil
}

// JSONSerializer stores fields as a JSON object with the body under "content".
type JSONSerializer struct{}

func (JSONSerializer) Parse(data []byte) (record, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return record{}, fmt.Errorf("invalid json: %w", err)
	}
	return splitContent(fields), nil
}

func (JSONSerializer) Serialize(rec record) ([]byte, error) {
	data, err := json.MarshalIndent(joinContent(rec), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAMLSerializer stores fields as a YAML mapping with the body under "content".
type YAMLSerializer struct{}

func (YAMLSerializer) Parse(data []byte) (record, error) {
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return record{}, fmt.Errorf("invalid yaml: %w", err)
	}
	return splitContent(fields), nil
}

func (YAMLSerializer) Serialize(rec record) ([]byte, error) {
	return yaml.Marshal(joinContent(rec))
}

func splitContent(fields map[string]any) record {
	if fields == nil {
		fields = map[string]any{}
	}
	rec := record{Fields: fields}
	if c, ok := fields[contentKey].(string); ok {
		rec.Body = c
		delete(fields, contentKey)
	}
	return rec
}

func joinContent(rec record) map[string]any {
	payload := make(map[string]any, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		payload[k] = v
	}
	payload[contentKey] = rec.Body
	return payload
}

func cutLine(data []byte) (line, rest []byte, found bool) {
	return bytes.Cut(data, []byte("\n"))
}

// toAttributes flattens decoded fields into string attributes. Scalars are
// formatted, sequences and mappings are re-encoded as YAML flow.
func toAttributes(fields map[string]any) core.Attributes {
	attrs := make(core.Attributes, len(fields))
	for k, v := range fields {
		attrs[k] = stringify(v)
	}
	return attrs
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any, map[string]any:
		var node yaml.Node
		if err := node.Encode(x); err != nil {
			return fmt.Sprint(x)
		}
		flow(&node)
		out, err := yaml.Marshal(&node)
		if err != nil {
			return fmt.Sprint(x)
		}
		return strings.TrimSpace(string(out))
	default:
		return fmt.Sprint(x)
	}
}

func flow(n *yaml.Node) {
	if n.Kind == yaml.SequenceNode || n.Kind == yaml.MappingNode {
		n.Style |= yaml.FlowStyle
	}
	for _, c := range n.Content {
		flow(c)
	}
}

// fromAttributes is the inverse of toAttributes. tags and list values that
// decode as string sequences are written back as sequences; everything else
// stays a string.
func fromAttributes(attrs core.Attributes) map[string]any {
	fields := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if k == core.AttrTags || k == core.AttrList {
			if list, err := core.DecodeStringList(v); err == nil && strings.TrimSpace(v) != "" {
				fields[k] = list
				continue
			}
		}
		fields[k] = v
	}
	return fields
}
