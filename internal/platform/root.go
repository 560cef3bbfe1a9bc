package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no vault marker exists above
// the start directory.
var ErrRootNotFound = errors.New("vault root not found")

// rootMarkers identify a vault root.
var rootMarkers = []string{".scribble", ".git", "scribble.yaml"}

// FindRoot walks upwards from startDir and returns the first directory that
// contains a vault marker.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}
