package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docsync/internal/domain"
)

var (
	importFile      string
	importSeparator string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import documents from a CSV or parquet file",
	Long: `Reads every row of the file, stores all documents in one transaction
and then indexes them. Any malformed row aborts the import before anything
is written.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to the CSV or parquet file")
	importCmd.Flags().StringVarP(&importSeparator, "separator", "s", "", "CSV separator (default from config)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	if err := connect(cmd); err != nil {
		return err
	}

	res, err := importer.IngestPath(cmd.Context(), importFile, importSeparator)
	if errors.Is(err, domain.ErrNothingToAdd) {
		cmd.Println("Nothing to import.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d documents (%d index failures).\n", res.Attempted(), res.IndexFailures())
	if res.Partial() {
		cmd.Println("Run 'docsctl reconcile' to index the missing documents.")
	}
	return nil
}
