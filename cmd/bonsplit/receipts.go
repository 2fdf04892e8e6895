package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bonsplit/bonsplit/internal/cli"
)

func receiptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipts",
		Short: "List processed receipts",
		RunE:  runReceipts,
	}
}

func runReceipts(cmd *cobra.Command, _ []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	receipts, err := store.ListReceipts(cmd.Context())
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no receipts processed yet"))
		return nil
	}

	var rows [][]string
	for i := range receipts {
		receipt := &receipts[i]
		date := "unbekannt"
		if !receipt.Date.IsZero() {
			date = receipt.Date.Format("2006-01-02")
		}
		billable := 0
		for j := range receipt.Items {
			if receipt.Items[j].Billable() {
				billable++
			}
		}
		rows = append(rows, []string{
			receipt.ID,
			date,
			receipt.Shop,
			fmt.Sprintf("%d", billable),
			cli.FormatAmount(receipt.PrintedTotal),
			receipt.SuggestedFilename(),
		})
	}

	fmt.Println(cli.FormatTitle("Receipts"))
	fmt.Println(cli.RenderTable([]string{"ID", "Date", "Shop", "Items", "Total", "Suggested name"}, rows))
	return nil
}
