package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindRoot(t *testing.T) {
	// base/
	//   vault/ (.scribble)
	//     notes/deep/
	//   manifest/ (scribble.yaml)
	//   empty/
	base := t.TempDir()
	vault := filepath.Join(base, "vault")
	deep := filepath.Join(vault, "notes", "deep")
	manifest := filepath.Join(base, "manifest")
	empty := filepath.Join(base, "empty")

	for _, dir := range []string{deep, manifest, empty, filepath.Join(vault, ".scribble")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(manifest, "scribble.yaml"), []byte("vault: .\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"At Root", vault, vault},
		{"Nested", deep, vault},
		{"Config File Marker", manifest, manifest},
		{"No Root Found", empty, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.start)
			if tt.want == "" {
				if !errors.Is(err, ErrRootNotFound) {
					t.Errorf("expected ErrRootNotFound, got %v (%s)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindRoot() error = %v", err)
			}
			if filepath.Clean(got) != filepath.Clean(tt.want) {
				t.Errorf("FindRoot() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveVaultPath(t *testing.T) {
	t.Run("Passthrough", func(t *testing.T) {
		if got := ResolveVaultPath("notes", false); got != "notes" {
			t.Errorf("expected notes, got %s", got)
		}
		if got := ResolveVaultPath("", false); got != "." {
			t.Errorf("expected ., got %s", got)
		}
	})

	t.Run("Temp Paths Are Trusted", func(t *testing.T) {
		dir := t.TempDir()
		if got := ResolveVaultPath(dir, true); got != filepath.Clean(dir) {
			t.Errorf("expected %s, got %s", dir, got)
		}
	})

	t.Run("Sandboxed", func(t *testing.T) {
		got := ResolveVaultPath("../../real/vault", true)
		want := filepath.Join(os.TempDir(), "scribble-dev", "vault")
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
		if got := ResolveVaultPath(".", true); !strings.HasSuffix(got, filepath.Join("scribble-dev", "default")) {
			t.Errorf("expected default sandbox, got %s", got)
		}
	})
}

func TestIsDevRun(t *testing.T) {
	if !IsDevRun() {
		t.Error("tests run from a go test binary")
	}
}
