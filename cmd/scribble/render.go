package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render [id|title]",
	Short: "Render a scribble as HTML",
	Long: `Render a scribble through its renderer: the scribble named by its element
attribute, a renderer registered for its content type, or a built-in handler.
Failures are rendered inline as error blocks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		var w io.Writer = os.Stdout
		if renderOut != "" {
			f, err := os.Create(renderOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return eng.Render(ctx, w, args[0])
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Write HTML to this file instead of stdout")
}
