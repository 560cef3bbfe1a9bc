package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/scribble/pkg/core"
)

// Defaults applied by NewRepository.
const (
	DefaultSystemDir = ".scribble"
	DefaultExt       = ".md"
	DefaultDebounce  = 50 * time.Millisecond
)

// idKey overrides the path-derived id of a file.
const idKey = "id"

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path       string
	MustExist  bool
	ReadOnly   bool
	SystemDir  string        // e.g. ".scribble"
	DefaultExt string        // extension for scribbles without a file yet
	Debounce   time.Duration // watcher coalescing window
	Logger     *slog.Logger
	// ErrorHandler receives watcher failures that have no caller to return to.
	ErrorHandler func(error)
}

// Repository stores scribbles as files below a root directory. Markdown files
// carry attributes as YAML frontmatter; JSON and YAML files keep the body
// under "content". The id of a file is its slash separated path without
// extension unless the file declares an "id" field.
type Repository struct {
	Path string

	config      Config
	logger      *slog.Logger
	cache       *cache
	serializers map[string]Serializer

	mu            sync.RWMutex
	paths         map[string]string // id -> relative path
	watcherActive bool
	lastScan      *time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.DefaultExt == "" {
		config.DefaultExt = DefaultExt
	}
	if !strings.HasPrefix(config.DefaultExt, ".") {
		config.DefaultExt = "." + config.DefaultExt
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:        config.Path,
		config:      config,
		logger:      logger,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: DefaultSerializers(),
		paths:       make(map[string]string),
	}
}

// Initialize prepares the root directory.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("vault path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", r.Path)
		}
		return nil
	}
	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	return nil
}

// GetAllMetadata walks the root and returns every scribble without its body.
// Unchanged files are served from the index cache; unparseable files are
// skipped with a warning.
func (r *Repository) GetAllMetadata(ctx context.Context) ([]core.Scribble, error) {
	if err := r.cache.Load(); err != nil {
		r.logger.Warn("index cache unavailable", "error", err)
	}

	var out []core.Scribble
	seen := make(map[string]bool)
	paths := make(map[string]string)

	err := filepath.WalkDir(r.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.Path && r.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		relPath, ok := r.relPath(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()
		seen[relPath] = true

		entry, hit := r.cache.Get(relPath, mtime)
		if !hit {
			s, err := r.readFile(relPath)
			if err != nil {
				r.logger.Warn("skipping unreadable scribble file", "path", relPath, "error", err)
				return nil
			}
			entry = &indexEntry{ID: s.ID, Attributes: s.Attributes, LastModified: mtime}
			r.cache.Set(relPath, entry)
		}

		if prev, dup := paths[entry.ID]; dup {
			r.logger.Warn("duplicate scribble id", "id", entry.ID, "kept", prev, "ignored", relPath)
			return nil
		}
		paths[entry.ID] = relPath
		out = append(out, core.NewMetadataOnly(entry.ID, entry.Attributes))
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.cache.Prune(seen)
	if err := r.cache.Save(); err != nil {
		r.logger.Warn("failed to persist index cache", "error", err)
	}

	now := time.Now()
	r.mu.Lock()
	r.paths = paths
	r.lastScan = &now
	r.mu.Unlock()

	r.logger.Debug("scanned vault", "path", r.Path, "scribbles", len(out), "cached", r.cache.Len())
	return out, nil
}

// GetScribble reads a single scribble including its body.
func (r *Repository) GetScribble(ctx context.Context, id string) (core.Scribble, error) {
	if err := ctx.Err(); err != nil {
		return core.Scribble{}, err
	}
	if id == "" {
		return core.Scribble{}, core.ErrEmptyID
	}
	relPath, ok := r.locate(id)
	if !ok {
		return core.Scribble{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	s, err := r.readFile(relPath)
	if errors.Is(err, os.ErrNotExist) {
		r.forget(id)
		return core.Scribble{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Scribble{}, err
	}
	if s.ID != id {
		return core.Scribble{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	return s, nil
}

// Save writes s atomically. Scribbles already backed by a file keep their
// path; new ones are written to "<id><DefaultExt>".
func (r *Repository) Save(ctx context.Context, s core.Scribble) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return core.ErrEmptyID
	}
	if s.Body == nil {
		return fmt.Errorf("cannot save scribble %s without body", s.ID)
	}

	relPath, ok := r.locate(s.ID)
	if !ok {
		if err := r.validateID(s.ID); err != nil {
			return err
		}
		relPath = s.ID + r.config.DefaultExt
	}
	ext := filepath.Ext(relPath)
	ser, ok := r.serializers[ext]
	if !ok {
		return fmt.Errorf("no serializer for extension %q", ext)
	}

	fields := fromAttributes(s.Attributes)
	if ext == ".md" && s.ContentType() == "text/markdown" {
		delete(fields, core.AttrContentType)
	}
	if pathID(relPath) != s.ID {
		fields[idKey] = s.ID
	}
	data, err := ser.Serialize(record{Fields: fields, Body: s.Text()})
	if err != nil {
		return fmt.Errorf("serialize %s: %w", s.ID, err)
	}

	fullPath := filepath.Join(r.Path, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return err
	}

	r.cache.Delete(relPath)
	r.remember(s.ID, relPath)
	r.logger.Debug("saved scribble", "id", s.ID, "path", relPath)
	return nil
}

// Delete removes the file backing id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return core.ErrEmptyID
	}
	relPath, ok := r.locate(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	err := os.Remove(filepath.Join(r.Path, filepath.FromSlash(relPath)))
	if errors.Is(err, os.ErrNotExist) {
		err = fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	r.cache.Delete(relPath)
	r.forget(id)
	if err != nil {
		return err
	}
	r.logger.Debug("deleted scribble", "id", id, "path", relPath)
	return nil
}

// readFile parses the file at relPath into a synced scribble.
func (r *Repository) readFile(relPath string) (core.Scribble, error) {
	ext := filepath.Ext(relPath)
	ser, ok := r.serializers[ext]
	if !ok {
		return core.Scribble{}, fmt.Errorf("no serializer for extension %q", ext)
	}
	data, err := os.ReadFile(filepath.Join(r.Path, filepath.FromSlash(relPath)))
	if err != nil {
		return core.Scribble{}, err
	}
	rec, err := ser.Parse(data)
	if err != nil {
		return core.Scribble{}, fmt.Errorf("%s: %w", relPath, err)
	}

	id := pathID(relPath)
	if v, ok := rec.Fields[idKey]; ok {
		if declared := stringify(v); declared != "" {
			id = declared
		}
		delete(rec.Fields, idKey)
	}
	attrs := toAttributes(rec.Fields)
	if _, ok := attrs[core.AttrContentType]; !ok && ext == ".md" {
		attrs[core.AttrContentType] = "text/markdown"
	}
	return core.NewSynced(id, rec.Body, attrs), nil
}

// locate finds the file of id, consulting the last scan first and probing the
// supported extensions otherwise.
func (r *Repository) locate(id string) (string, bool) {
	r.mu.RLock()
	relPath, ok := r.paths[id]
	r.mu.RUnlock()
	if ok {
		return relPath, true
	}
	if r.validateID(id) != nil {
		return "", false
	}
	exts := []string{r.config.DefaultExt, ".md", ".json", ".yaml", ".yml"}
	for _, ext := range exts {
		candidate := id + ext
		if _, err := os.Stat(filepath.Join(r.Path, filepath.FromSlash(candidate))); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func (r *Repository) forget(id string) {
	r.mu.Lock()
	delete(r.paths, id)
	r.mu.Unlock()
}

// idAt returns the id last seen at relPath.
func (r *Repository) idAt(relPath string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, p := range r.paths {
		if p == relPath {
			return id, true
		}
	}
	return "", false
}

func (r *Repository) remember(id, relPath string) {
	r.mu.Lock()
	r.paths[id] = relPath
	r.mu.Unlock()
}

// relPath converts an absolute path below the root into the slash separated
// form used for ids and cache keys. Files the repository does not manage
// report false.
func (r *Repository) relPath(path string) (string, bool) {
	if isTempFile(path) {
		return "", false
	}
	if _, ok := r.serializers[filepath.Ext(path)]; !ok {
		return "", false
	}
	rel, err := filepath.Rel(r.Path, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/")[:strings.Count(rel, "/")] {
		if r.skipDir(part) {
			return "", false
		}
	}
	return rel, true
}

func (r *Repository) skipDir(name string) bool {
	return name == ".git" || name == r.config.SystemDir
}

// validateID rejects ids that would escape the root or land in the system
// directory.
func (r *Repository) validateID(id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	if strings.ContainsRune(id, 0) || strings.Contains(id, `\`) || filepath.IsAbs(id) || strings.HasPrefix(id, "/") {
		return fmt.Errorf("invalid scribble id %q", id)
	}
	for _, part := range strings.Split(id, "/") {
		if part == "" || part == "." || part == ".." || r.skipDir(part) {
			return fmt.Errorf("invalid scribble id %q", id)
		}
	}
	return nil
}

func pathID(relPath string) string {
	return strings.TrimSuffix(relPath, filepath.Ext(relPath))
}

var (
	_ core.Storage   = (*Repository)(nil)
	_ core.Writable  = (*Repository)(nil)
	_ core.Watchable = (*Repository)(nil)
)
