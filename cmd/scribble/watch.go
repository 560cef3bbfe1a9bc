package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribble"
	scribblelifecycle "github.com/aretw0/scribble/pkg/adapters/lifecycle"
	"github.com/aretw0/scribble/pkg/core"
)

var (
	watchPattern string
	watchRender  string
	watchOut     string
	watchOnly    []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes to the vault",
	Long: `Watch the vault for changes and print every change applied to the store.
With --render the named scribble is rendered again after each change.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		types, err := eventTypes(watchOnly)
		if err != nil {
			return err
		}

		events, cancel := eng.Store.Subscribe(64)
		defer cancel()
		if err := eng.Follow(ctx, watchPattern); err != nil {
			return fmt.Errorf("watch: %w", err)
		}

		source := scribblelifecycle.NewSource(events, scribblelifecycle.WithTypes(types...))
		if err := source.Start(ctx); err != nil {
			return err
		}
		if err := renderWatched(ctx, eng); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Watching %q. Press Ctrl+C to stop.\n", watchPattern)
		for ev := range source.Events() {
			fmt.Println(ev.String())
			if err := renderWatched(ctx, eng); err != nil {
				return err
			}
		}
		return nil
	},
}

// renderWatched renders the --render target, if any, to --out or stdout.
func renderWatched(ctx context.Context, eng *scribble.Engine) error {
	if watchRender == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := eng.Render(ctx, &buf, watchRender); err != nil {
		return err
	}
	if watchOut == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(watchOut, buf.Bytes(), 0644)
}

// eventTypes parses --only values such as "create" or "DELETE".
func eventTypes(names []string) ([]core.EventType, error) {
	var out []core.EventType
	for _, name := range names {
		switch t := core.EventType(strings.ToUpper(strings.TrimSpace(name))); t {
		case core.EventCreate, core.EventModify, core.EventDelete:
			out = append(out, t)
		default:
			return nil, fmt.Errorf("unknown event type %q", name)
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchPattern, "pattern", "p", "**/*", "Only follow files matching this pattern")
	watchCmd.Flags().StringVarP(&watchRender, "render", "r", "", "Render this scribble after every change")
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Write rendered HTML to this file")
	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "Only report these event types (create, modify, delete)")
}
