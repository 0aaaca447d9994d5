package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bdetect/internal/events"
	"bdetect/internal/ledger"
	"bdetect/internal/references"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and migrate the inference ledger",
	}

	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerExportCommand(ctx))
	ledgerCmd.AddCommand(newLedgerImportCommand(ctx))

	return ledgerCmd
}

func (c *commandContext) withLedger(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List recorded inference results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				entries, err := store.Entries(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Ledger is empty.")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					processed := ""
					if !entry.ProcessedAt.IsZero() {
						processed = entry.ProcessedAt.Local().Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{
						entry.Identifier,
						events.ClassForCode(entry.ClassCode).Name,
						processed,
						entry.Title,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Identifier", "Class", "Processed", "Title"},
					rows,
				))
				fmt.Fprintf(out, "%d entries\n", len(entries))
				return nil
			})
		},
	}
}

func newLedgerExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as a legacy inference_log.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				out := cmd.OutOrStdout()
				if outputPath != "" {
					f, err := os.Create(outputPath)
					if err != nil {
						return fmt.Errorf("create export file: %w", err)
					}
					defer f.Close()
					if err := store.ExportCSV(cmd.Context(), f); err != nil {
						return err
					}
					fmt.Fprintf(out, "Exported ledger to %s\n", outputPath)
					return nil
				}
				return store.ExportCSV(cmd.Context(), out)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newLedgerImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import entries from a legacy inference_log.csv",
		Long: `Import appends the rows of an inference_log.csv produced by earlier
versions. Stored URLs are rewritten to their canonical identifiers so imported
entries reconcile against the same batches as fresh runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()

				canonicalize := func(s string) string {
					return references.Identifier(references.Canonicalize(s))
				}
				imported, err := store.ImportCSV(cmd.Context(), f, canonicalize)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries from %s\n", imported, args[0])
				return nil
			})
		},
	}
}
