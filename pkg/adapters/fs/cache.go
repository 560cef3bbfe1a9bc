package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/scribble/pkg/core"
)

const indexVersion = 2

// indexEntry is the cached metadata of a single file.
type indexEntry struct {
	ID           string          `json:"id"`
	Attributes   core.Attributes `json:"attributes,omitempty"`
	LastModified time.Time       `json:"lastModified"`
}

// index is the persisted shape of the cache, keyed by slash separated path
// relative to the root (e.g. "notes/foo.md").
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"`
}

// cache keeps file metadata between walks so unchanged files are not parsed
// again. Entries are validated by modification time.
type cache struct {
	Path string

	mu    sync.RWMutex
	index index
	dirty bool
}

func newCache(root, systemDir string) *cache {
	return &cache{
		Path:  filepath.Join(root, systemDir, "index.json"),
		index: index{Version: indexVersion, Entries: make(map[string]*indexEntry)},
	}
}

// Load reads the index from disk. A missing, corrupted or outdated index
// starts empty.
func (c *cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	var loaded index
	if err := json.Unmarshal(data, &loaded); err != nil || loaded.Version != indexVersion || loaded.Entries == nil {
		c.index.Entries = make(map[string]*indexEntry)
		c.dirty = true
		return nil
	}
	c.index = loaded
	c.dirty = false
	return nil
}

// Save persists the index when it changed since the last load or save.
func (c *cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Get returns the entry for relPath when its recorded mtime matches.
func (c *cache) Get(relPath string, mtime time.Time) (*indexEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.index.Entries[relPath]
	if !ok || !entry.LastModified.Equal(mtime) {
		return nil, false
	}
	return entry, true
}

func (c *cache) Set(relPath string, entry *indexEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index.Entries[relPath] = entry
	c.dirty = true
}

func (c *cache) Delete(relPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index.Entries[relPath]; ok {
		delete(c.index.Entries, relPath)
		c.dirty = true
	}
}

// Prune drops every entry whose path is not in keep.
func (c *cache) Prune(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path := range c.index.Entries {
		if !keep[path] {
			delete(c.index.Entries, path)
			c.dirty = true
		}
	}
}

func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index.Entries)
}
