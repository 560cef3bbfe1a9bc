package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/scribble/pkg/core"
)

// options holds the internal configuration for a scribble engine.
type options struct {
	storage core.Storage
	logger  *slog.Logger
	adapter string
	config  map[string]interface{}
	core    []core.Scribble
}

// Option defines a functional option for configuring the engine.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a storage collaborator (e.g. an in-memory fake).
// If provided, the adapter selected by WithAdapter is skipped.
func WithStorage(storage core.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithCoreScribbles registers scribbles that ship with the application.
// Storage never replaces them.
func WithCoreScribbles(scribbles ...core.Scribble) Option {
	return func(o *options) {
		o.core = append(o.core, scribbles...)
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist requires the vault directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithSystemDir sets the hidden directory name. Defaults to ".scribble".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithDefaultExt sets the file extension for newly saved scribbles.
func WithDefaultExt(ext string) Option {
	return func(o *options) {
		o.config["default_ext"] = ext
	}
}

// WithDebounce sets the window in which watcher notifications for one file
// are coalesced.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}

// WithWatcherErrorHandler registers a callback for errors raised by the
// watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode: Save and Delete return ErrReadOnly,
// the directory is never created, and the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox applied when running via `go run` or
// `go test`. By default writes are redirected into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithMaxEmbedDepth bounds how deeply renderers may embed each other.
func WithMaxEmbedDepth(n int) Option {
	return func(o *options) {
		o.config["max_depth"] = n
	}
}

// WithHighlightStyle selects the chroma style used for highlighted sources.
func WithHighlightStyle(name string) Option {
	return func(o *options) {
		o.config["highlight_style"] = name
	}
}
