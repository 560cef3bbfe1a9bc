package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates And Overwrites", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "note.md")

		for _, content := range []string{"first", "second"} {
			if err := writeFileAtomic(filename, []byte(content), 0644); err != nil {
				t.Fatalf("writeFileAtomic(%q) failed: %v", content, err)
			}
			got, err := os.ReadFile(filename)
			if err != nil {
				t.Fatalf("read back: %v", err)
			}
			if string(got) != content {
				t.Errorf("expected %q, got %q", content, got)
			}
		}
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		if err := writeFileAtomic(filepath.Join(dir, "a.md"), []byte("a"), 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if isTempFile(e.Name()) {
				t.Errorf("temp file %s left behind", e.Name())
			}
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 entry, got %d", len(entries))
		}
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		dir := t.TempDir()
		err := writeFileAtomic(filepath.Join(dir, "missing", "a.md"), []byte("x"), 0644)
		if err == nil {
			t.Error("expected error when directory is missing")
		}
	})
}

func TestIsTempFile(t *testing.T) {
	if !isTempFile(filepath.Join("notes", TempFilePrefix+"123")) {
		t.Error("expected temp file to be recognized")
	}
	if isTempFile("notes/scribble.md") {
		t.Error("regular file flagged as temp")
	}
}
