package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id|title]",
	Short: "Delete a scribble from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(cmd.Context())
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}
		id, err := lookupID(eng, args[0])
		if err != nil {
			return err
		}
		if err := eng.Store.Remove(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete %s: %w", args[0], err)
		}
		fmt.Printf("Scribble deleted: %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
