package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var readJSON bool

var readCmd = &cobra.Command{
	Use:   "read [id|title]",
	Short: "Print the body of a scribble",
	Long:  `Read a scribble by id or title. Outputs the raw body by default, or the whole entity as JSON with --json.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		id, err := lookupID(eng, args[0])
		if err != nil {
			return err
		}
		s, err := eng.Store.Fetch(ctx, id)
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		if readJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(s)
		}
		fmt.Print(s.Text())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
}
