package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribble/pkg/core"
)

var (
	listJSON   bool
	filterTag  string
	listPrefix string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scribbles in the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd.Context())
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		var scribbles []core.Scribble
		if listPrefix != "" {
			scribbles = eng.Store.ByTitlePrefix(listPrefix)
		} else {
			scribbles = eng.Store.List()
		}

		filtered := scribbles[:0]
		for _, s := range scribbles {
			if filterTag != "" && !slices.Contains(s.Computed.Tags, filterTag) {
				continue
			}
			filtered = append(filtered, s)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(filtered)
		}

		for _, s := range filtered {
			title := ""
			if t := s.Title(); t != "" {
				title = "- " + t
			}
			fmt.Printf("%s %s\n", s.ID, title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterTag, "tag", "", "Filter scribbles by tag")
	listCmd.Flags().StringVar(&listPrefix, "title-prefix", "", "Only scribbles whose title starts with this prefix")
}
