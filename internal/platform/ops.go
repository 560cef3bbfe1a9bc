package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/scribble/pkg/adapters/fs"
	"github.com/aretw0/scribble/pkg/core"
)

// Init prepares the storage selected by the options. The uri argument is
// adapter-specific (a directory for "fs").
func Init(ctx context.Context, uri string, opts ...Option) (core.Storage, error) {
	return initStorage(ctx, uri, parseOptions(opts))
}

func initStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	if o.storage != nil {
		return o.storage, nil
	}

	switch o.adapter {
	case "fs":
		repo := newFS(uri, o)
		if err := repo.Initialize(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// newFS builds the filesystem repository, applying the dev sandbox.
func newFS(path string, o *options) *fs.Repository {
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	defaultExt, _ := o.config["default_ext"].(string)
	debounce, _ := o.config["debounce"].(time.Duration)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	bypassSafety := readOnly || !devSafety
	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolved := ResolveVaultPath(path, useTemp)

	if o.logger != nil {
		switch {
		case useTemp:
			o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
		case IsDevRun() && readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		case IsDevRun():
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}

	return fs.NewRepository(fs.Config{
		Path:         resolved,
		MustExist:    mustExist || readOnly,
		ReadOnly:     readOnly,
		SystemDir:    systemDir,
		DefaultExt:   defaultExt,
		Debounce:     debounce,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}
