package fs

import (
	"strings"
	"testing"

	"github.com/aretw0/scribble/pkg/core"
)

func TestSerializers_RoundTrip(t *testing.T) {
	rec := record{
		Fields: fromAttributes(core.Attributes{
			"title":        "Test Title",
			"tags":         "[a, b]",
			"content-type": "text/markdown",
		}),
		Body: "Hello *World*\n",
	}

	for ext, s := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			data, err := s.Serialize(rec)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			parsed, err := s.Parse(data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if parsed.Body != rec.Body {
				t.Errorf("body mismatch: want %q, got %q", rec.Body, parsed.Body)
			}

			attrs := toAttributes(parsed.Fields)
			if attrs["title"] != "Test Title" {
				t.Errorf("title mismatch: %q", attrs["title"])
			}
			if attrs["tags"] != "[a, b]" {
				t.Errorf("tags mismatch: %q", attrs["tags"])
			}
			if _, ok := attrs[contentKey]; ok {
				t.Error("body leaked into attributes")
			}
		})
	}
}

func TestMarkdownSerializer_Parse(t *testing.T) {
	s := MarkdownSerializer{}

	t.Run("No Frontmatter", func(t *testing.T) {
		rec, err := s.Parse([]byte("# Title\n\nbody"))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rec.Body != "# Title\n\nbody" || len(rec.Fields) != 0 {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("CRLF Frontmatter", func(t *testing.T) {
		rec, err := s.Parse([]byte("---\r\ntitle: X\r\n---\r\nbody"))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rec.Fields["title"] != "X" {
			t.Errorf("expected title X, got %v", rec.Fields["title"])
		}
		if rec.Body != "body" {
			t.Errorf("expected body 'body', got %q", rec.Body)
		}
	})

	t.Run("Thematic Break In Body", func(t *testing.T) {
		rec, err := s.Parse([]byte("---\ntitle: X\n---\nabove\n---\nbelow"))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rec.Body != "above\n---\nbelow" {
			t.Errorf("unexpected body %q", rec.Body)
		}
	})

	t.Run("Unclosed Frontmatter", func(t *testing.T) {
		if _, err := s.Parse([]byte("---\ntitle: X\nbody")); err == nil {
			t.Error("expected error for unclosed frontmatter")
		}
	})

	t.Run("Empty Frontmatter", func(t *testing.T) {
		rec, err := s.Parse([]byte("---\n---\nbody"))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rec.Fields == nil || rec.Body != "body" {
			t.Errorf("unexpected record: %+v", rec)
		}
	})
}

func TestMarkdownSerializer_OmitsEmptyFrontmatter(t *testing.T) {
	data, err := MarkdownSerializer{}.Serialize(record{Fields: map[string]any{}, Body: "plain"})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if string(data) != "plain" {
		t.Errorf("expected bare body, got %q", data)
	}
}

func TestToAttributes(t *testing.T) {
	fields := map[string]any{
		"title":  "T",
		"count":  42,
		"draft":  true,
		"empty":  nil,
		"tags":   []any{"a", "b c"},
		"nested": map[string]any{"k": "v"},
	}
	attrs := toAttributes(fields)

	want := map[string]string{
		"title":  "T",
		"count":  "42",
		"draft":  "true",
		"empty":  "",
		"tags":   "[a, b c]",
		"nested": "{k: v}",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("%s: want %q, got %q", k, v, attrs[k])
		}
	}

	list, err := core.DecodeStringList(attrs["tags"])
	if err != nil || strings.Join(list, "|") != "a|b c" {
		t.Errorf("tags do not decode back: %v %v", list, err)
	}
}

func TestFromAttributes(t *testing.T) {
	fields := fromAttributes(core.Attributes{
		"tags":  "[x, y]",
		"list":  "not: [valid",
		"title": "[looks, like, a, list]",
	})
	if tags, ok := fields["tags"].([]string); !ok || len(tags) != 2 {
		t.Errorf("expected tags as sequence, got %#v", fields["tags"])
	}
	if _, ok := fields["list"].(string); !ok {
		t.Errorf("malformed list should stay a string, got %#v", fields["list"])
	}
	if _, ok := fields["title"].(string); !ok {
		t.Errorf("non-list keys stay strings, got %#v", fields["title"])
	}
}
