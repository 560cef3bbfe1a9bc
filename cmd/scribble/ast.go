package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribble/pkg/ast"
	"github.com/aretw0/scribble/pkg/parser"
)

var (
	astRaw  bool
	astFile string
)

var astCmd = &cobra.Command{
	Use:   "ast [id|title]",
	Short: "Print the syntax tree of a scribble, a file or stdin as JSON",
	Long: `Parse Markdown and print the syntax tree. The source is the scribble named
by the argument, the file given with --file, or stdin ("-" or no argument).
--raw skips normalization.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := astSource(cmd, args)
		if err != nil {
			return err
		}

		var blocks []*ast.Node
		if astRaw {
			blocks, err = parser.ParseRaw(source)
		} else {
			blocks, err = parser.Parse(source)
		}
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(blocks)
	},
}

func astSource(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case astFile != "":
		data, err := os.ReadFile(astFile)
		return string(data), err
	case len(args) == 0 || args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}

	ctx := cmd.Context()
	eng, err := openEngine(ctx)
	if err != nil {
		return "", fmt.Errorf("open vault: %w", err)
	}
	id, err := lookupID(eng, args[0])
	if err != nil {
		return "", err
	}
	s, err := eng.Store.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Text(), nil
}

func init() {
	rootCmd.AddCommand(astCmd)
	astCmd.Flags().BoolVar(&astRaw, "raw", false, "Skip normalization")
	astCmd.Flags().StringVarP(&astFile, "file", "f", "", "Parse this file instead of a scribble")
}
