package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bonsplit/bonsplit/internal/cli"
	"github.com/bonsplit/bonsplit/internal/engine"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file-or-directory>...",
		Short: "Run extracted receipts through the processing pipeline",
		Long: `Parse extracted receipt token files, fold promotional discount lines
into their items, repair garbled product names via the correction
oracle, assign default shares and store the result.

Inputs are JSON files produced by the OCR extraction step.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().Bool("offline", false, "use the built-in lexicon instead of the remote oracle")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	offline, _ := cmd.Flags().GetBool("offline")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no receipt files found in %v", args)
	}

	store, err := openStorageUnchecked()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	assigner, err := newAssigner(store)
	if err != nil {
		return err
	}

	corrector, err := newCorrector(offline)
	if err != nil {
		return err
	}
	defer func() { _ = corrector.Close() }()

	config := engine.DefaultConfig()
	config.ShowProgress = !noProgress
	eng := engine.New(store, corrector, assigner, config)

	stats, err := eng.ProcessBatch(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Processing complete"))
	fmt.Println(cli.RenderTable(
		[]string{"Receipts", "Items", "Promotions", "Corrected", "Unrecognized", "Anomalies"},
		[][]string{{
			fmt.Sprintf("%d", stats.Receipts),
			fmt.Sprintf("%d", stats.Items),
			fmt.Sprintf("%d", stats.Promotions),
			fmt.Sprintf("%d", stats.Corrected),
			fmt.Sprintf("%d", stats.Unrecognized),
			fmt.Sprintf("%d", stats.Anomalies),
		}},
	))
	if stats.Anomalies > 0 {
		fmt.Println(cli.FormatWarning("anomalies were recorded, review them with: bonsplit anomalies"))
	}
	return nil
}

func collectInputs(paths []string) ([]engine.ReceiptInput, error) {
	var inputs []engine.ReceiptInput
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}

		if info.IsDir() {
			dirInputs, err := engine.LoadInputs(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, dirInputs...)
			continue
		}

		input, err := engine.LoadInput(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, *input)
	}
	return inputs, nil
}
