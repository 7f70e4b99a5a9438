package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair drift between the record store and the search index",
	Long: `Runs one reconciliation pass: documents missing from the search index
are re-indexed and index entries without a stored document are removed.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if err := connect(cmd); err != nil {
		return err
	}

	stats, err := reconciler.RunOnce(cmd.Context())
	cmd.Printf("Scanned %d, reindexed %d, removed %d orphans, %d errors.\n",
		stats.Scanned, stats.Reindexed, stats.Orphans, stats.Errors)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	return nil
}
