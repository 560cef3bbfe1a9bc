package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribble/pkg/core"
)

var (
	draftNew      bool
	draftBody     string
	draftBodyFile string
	draftSet      []string
	draftUnset    []string
	draftCommit   bool
)

var draftCmd = &cobra.Command{
	Use:   "draft [id|title]",
	Short: "Edit a scribble through a draft",
	Long: `Create a draft of a scribble (or of a new one with --new), apply the
requested edits and print it. With --commit the draft replaces its origin,
or becomes a new scribble, and is written to the vault.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if draftNew {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		var draft core.Scribble
		if draftNew {
			draft = eng.Store.CreateNewDraft(core.Attributes{core.AttrContentType: "text/markdown"})
		} else {
			id, err := lookupID(eng, args[0])
			if err != nil {
				return err
			}
			draft, err = eng.Store.CreateDraft(ctx, id)
			if err != nil {
				return fmt.Errorf("draft %s: %w", args[0], err)
			}
		}

		body, hasBody, err := draftBodyInput(cmd)
		if err != nil {
			return err
		}
		if hasBody {
			if err := eng.Store.UpdateBody(draft.ID, body); err != nil {
				return err
			}
		}
		for _, kv := range draftSet {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return fmt.Errorf("--set expects key=value, got %q", kv)
			}
			if key == core.AttrDraftOf {
				return fmt.Errorf("%s cannot be set directly", key)
			}
			if err := eng.Store.SetAttribute(draft.ID, key, value); err != nil {
				return err
			}
		}
		for _, key := range draftUnset {
			if key == core.AttrDraftOf {
				return fmt.Errorf("%s cannot be unset directly", key)
			}
			if err := eng.Store.RemoveAttribute(draft.ID, key); err != nil {
				return err
			}
		}

		if draftCommit {
			committed, err := eng.Store.CommitDraft(ctx, draft.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Scribble '%s' committed.\n", committed.ID)
			return nil
		}

		current, _ := eng.Store.Get(draft.ID)
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(current)
	},
}

func draftBodyInput(cmd *cobra.Command) (string, bool, error) {
	switch {
	case draftBodyFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), true, err
	case draftBodyFile != "":
		data, err := os.ReadFile(draftBodyFile)
		return string(data), true, err
	case cmd.Flags().Changed("body"):
		return draftBody, true, nil
	}
	return "", false, nil
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.Flags().BoolVar(&draftNew, "new", false, "Draft a new scribble")
	draftCmd.Flags().StringVarP(&draftBody, "body", "b", "", "Replace the body")
	draftCmd.Flags().StringVarP(&draftBodyFile, "body-file", "f", "", "Read the body from a file (- for stdin)")
	draftCmd.Flags().StringArrayVar(&draftSet, "set", nil, "Set an attribute (key=value, repeatable)")
	draftCmd.Flags().StringArrayVar(&draftUnset, "unset", nil, "Remove an attribute (repeatable)")
	draftCmd.Flags().BoolVar(&draftCommit, "commit", false, "Commit the draft to the vault")
}
