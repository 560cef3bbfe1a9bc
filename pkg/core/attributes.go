package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Reserved attribute keys.
const (
	AttrContentType = "content-type"
	AttrElement     = "element"
	AttrTitle       = "title"
	AttrTags        = "tags"
	AttrList        = "list"
	AttrListBefore  = "list-before"
	AttrListAfter   = "list-after"
	AttrDraftOf     = "mn-draft-of"
	AttrExact       = "exact"
	AttrPath        = "path"
)

// Attributes is the open-ended string mapping attached to every scribble.
type Attributes map[string]string

// Clone returns a copy of the attributes. A nil map clones to an empty one.
func (a Attributes) Clone() Attributes {
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// ComputedAttributes are derived from Attributes and never set directly.
type ComputedAttributes struct {
	Tags []string `json:"tags"`
	List []string `json:"list"`
}

func (c ComputedAttributes) clone() ComputedAttributes {
	return ComputedAttributes{
		Tags: append([]string{}, c.Tags...),
		List: append([]string{}, c.List...),
	}
}

// AttributeSchemaError reports a tags or list value that does not decode to
// a sequence of strings.
type AttributeSchemaError struct {
	ScribbleID string
	Key        string
	Value      string
	Cause      error
}

func (e *AttributeSchemaError) Error() string {
	return fmt.Sprintf("scribble %s has incorrectly formatted %s field %q: %v", e.ScribbleID, e.Key, e.Value, e.Cause)
}

func (e *AttributeSchemaError) Unwrap() error { return e.Cause }

const stringListSchema = `{"type": "array", "items": {"type": "string"}}`

var compiledStringList = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("string-list.json", strings.NewReader(stringListSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("string-list.json")
})

// DecodeStringList decodes a YAML encoded sequence of strings and validates
// it against the string list schema. An empty value decodes to an empty list.
func DecodeStringList(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return []string{}, nil
	}

	var raw any
	if err := yaml.Unmarshal([]byte(value), &raw); err != nil {
		return []string{}, fmt.Errorf("invalid yaml: %w", err)
	}

	// Round-trip through JSON so the validator only sees JSON kinds.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return []string{}, fmt.Errorf("not representable as json: %w", err)
	}
	var payload any
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return []string{}, err
	}

	schema, err := compiledStringList()
	if err != nil {
		return []string{}, fmt.Errorf("schema unavailable: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return []string{}, err
	}

	items, _ := payload.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(string))
	}
	return out, nil
}

// ComputeAttributes derives the computed attributes of a scribble. Malformed
// tags or list values degrade to empty sequences; the returned errors are
// diagnostics only.
func ComputeAttributes(id string, attrs Attributes) (ComputedAttributes, []error) {
	var diags []error
	decode := func(key string) []string {
		value, ok := attrs[key]
		if !ok {
			return []string{}
		}
		list, err := DecodeStringList(value)
		if err != nil {
			diags = append(diags, &AttributeSchemaError{ScribbleID: id, Key: key, Value: value, Cause: err})
		}
		return list
	}
	computed := ComputedAttributes{
		Tags: decode(AttrTags),
		List: decode(AttrList),
	}
	return computed, diags
}

// Recompute returns a copy of s with computed attributes re-derived, logging
// schema diagnostics to logger when it is not nil.
func Recompute(s Scribble, logger *slog.Logger) Scribble {
	c := s
	c.Attributes = s.Attributes.Clone()
	computed, diags := ComputeAttributes(s.ID, c.Attributes)
	for _, d := range diags {
		if logger != nil {
			logger.Warn("attribute schema error", "id", s.ID, "error", d)
		}
	}
	c.Computed = computed
	return c
}

// recompute re-derives computed attributes without logging. Diagnostics are
// available through SchemaErrors or Recompute with a logger.
func (s Scribble) recompute() Scribble {
	return Recompute(s, nil)
}

// SchemaErrors reports the attribute values that failed to decode into their
// computed form.
func (s Scribble) SchemaErrors() []error {
	_, diags := ComputeAttributes(s.ID, s.Attributes)
	return diags
}

// WithAttribute returns a copy with key set to value.
func (s Scribble) WithAttribute(key, value string) Scribble {
	c := s.Clone()
	c.Attributes[key] = value
	return c.recompute()
}

// WithoutAttribute returns a copy with key removed.
func (s Scribble) WithoutAttribute(key string) Scribble {
	c := s.Clone()
	delete(c.Attributes, key)
	return c.recompute()
}

// WithAttributes returns a copy whose attributes are replaced by attrs.
func (s Scribble) WithAttributes(attrs Attributes) Scribble {
	c := s.Clone()
	c.Attributes = attrs.Clone()
	return c.recompute()
}
