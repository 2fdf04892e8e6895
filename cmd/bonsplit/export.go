package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bonsplit/bonsplit/internal/bridge"
	"github.com/bonsplit/bonsplit/internal/cli"
	"github.com/bonsplit/bonsplit/internal/ledger"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <receipt-id>",
		Short: "Export a receipt's items for manual editing",
		Long: `Write a receipt's billable items to an editable table. The exported
rows carry stable item ids; edit names and shares, then read the file
back with 'bonsplit import'.

A receipt whose item sum diverges from the printed total beyond
tolerance is refused unless --ack-drift is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "output file (default: <receipt-id>.<format>)")
	cmd.Flags().String("format", "csv", "output format (csv, xlsx)")
	cmd.Flags().Bool("ack-drift", false, "export even when the receipt total drifts beyond tolerance")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	ackDrift, _ := cmd.Flags().GetBool("ack-drift")

	format = strings.ToLower(format)
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q (csv, xlsx)", format)
	}
	if output == "" {
		output = args[0] + "." + format
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	receipt, err := store.GetReceipt(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	persons, err := configuredPersons()
	if err != nil {
		return err
	}
	exporter := bridge.NewExporter(persons, newLedger(), ackDrift)

	switch format {
	case "xlsx":
		err = exporter.WriteXLSX(output, receipt)
	default:
		var f *os.File
		f, err = os.Create(output) // #nosec G304 -- user-chosen output path
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() { _ = f.Close() }()
		err = exporter.WriteCSV(f, receipt)
	}

	var driftErr *ledger.DriftError
	if errors.As(err, &driftErr) {
		fmt.Println(cli.FormatError(driftErr.Error()))
		return fmt.Errorf("export refused, re-run with --ack-drift to export anyway")
	}
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("exported %s to %s", args[0], output)))
	return nil
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Read a manually edited export back into storage",
		Long: `Apply edits from an exported CSV. Rows are matched strictly by item
id: unknown ids are reported and skipped, never inserted. Only the
corrected name and the share columns are writable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0]) // #nosec G304 -- user-chosen input path
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := bridge.NewImporter(store).ReadCSV(cmd.Context(), f)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(
				fmt.Sprintf("%d row(s) updated, %d unchanged", result.Updated, result.Unchanged)))
			for i := range result.Errors {
				fmt.Println(cli.FormatWarning(result.Errors[i].Error()))
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d row(s) were rejected", len(result.Errors))
			}
			return nil
		},
	}
}
