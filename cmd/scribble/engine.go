package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/scribble"
)

func findRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return scribble.FindVaultRoot(wd)
}

// vaultPath returns the configured vault, the nearest vault root, or the
// working directory, in that order.
func vaultPath() (string, error) {
	if cfg.Vault != "" {
		return cfg.Vault, nil
	}
	if root, err := findRoot(); err == nil {
		return root, nil
	}
	return os.Getwd()
}

// openEngine opens the vault described by the current settings.
func openEngine(ctx context.Context, extra ...scribble.Option) (*scribble.Engine, error) {
	path, err := vaultPath()
	if err != nil {
		return nil, err
	}
	opts := []scribble.Option{
		scribble.WithLogger(slog.Default()),
		scribble.WithMustExist(true),
		scribble.WithReadOnly(cfg.ReadOnly),
		scribble.WithSystemDir(cfg.SystemDir),
		scribble.WithHighlightStyle(cfg.HighlightStyle),
		scribble.WithMaxEmbedDepth(cfg.MaxDepth),
	}
	return scribble.New(ctx, path, append(opts, extra...)...)
}

// lookupID resolves a command argument naming a scribble by id or title.
func lookupID(eng *scribble.Engine, arg string) (string, error) {
	ref := eng.Resolver.ParseRef(arg)
	if ref.ID != "" {
		return ref.ID, nil
	}
	s, ok := eng.Store.ByTitle(ref.Title)
	if !ok {
		return "", fmt.Errorf("no scribble titled %q", ref.Title)
	}
	return s.ID, nil
}
