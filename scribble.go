package scribble

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/scribble/internal/platform"
	"github.com/aretw0/scribble/pkg/core"
)

// --- Types ---

// Engine is the wired storage, store and resolver.
type Engine = platform.Engine

// Option defines a functional option for configuring the engine.
type Option = platform.Option

// --- Configuration ---

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a storage collaborator instead of the built-in adapter.
func WithStorage(storage core.Storage) Option {
	return platform.WithStorage(storage)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithCoreScribbles registers scribbles that ship with the application.
func WithCoreScribbles(scribbles ...core.Scribble) Option {
	return platform.WithCoreScribbles(scribbles...)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist requires the vault directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithSystemDir sets the hidden directory name (e.g. ".scribble").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithDefaultExt sets the file extension for newly saved scribbles.
func WithDefaultExt(ext string) Option {
	return platform.WithDefaultExt(ext)
}

// WithDebounce sets the watcher coalescing window.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler registers a callback for watch loop errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithMaxEmbedDepth bounds how deeply renderers may embed each other.
func WithMaxEmbedDepth(n int) Option {
	return platform.WithMaxEmbedDepth(n)
}

// WithHighlightStyle selects the chroma style for highlighted sources.
func WithHighlightStyle(name string) Option {
	return platform.WithHighlightStyle(name)
}

// --- Factory ---

// New opens the vault at path and returns a ready engine. Background work
// stops when ctx ends.
func New(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	return platform.New(ctx, path, opts...)
}

// Init prepares the storage without loading it.
func Init(ctx context.Context, path string, opts ...Option) (core.Storage, error) {
	return platform.Init(ctx, path, opts...)
}

// --- Safety & Utils ---

// ResolveVaultPath determines the actual path for the vault based on safety rules.
func ResolveVaultPath(userPath string, forceTemp bool) string {
	return platform.ResolveVaultPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindVaultRoot looks upwards for a vault root indicator.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
