package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bonsplit/bonsplit/internal/cli"
	"github.com/bonsplit/bonsplit/internal/ledger"
	"github.com/bonsplit/bonsplit/internal/model"
)

func totalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show per-person totals and batch statistics",
		RunE:  runTotals,
	}

	cmd.Flags().String("receipt", "", "limit totals to one receipt id")

	return cmd
}

func runTotals(cmd *cobra.Command, _ []string) error {
	receiptID, _ := cmd.Flags().GetString("receipt")

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var receipts []*model.Receipt
	if receiptID != "" {
		receipt, err := store.GetReceipt(cmd.Context(), receiptID)
		if err != nil {
			return err
		}
		receipts = []*model.Receipt{receipt}
	} else {
		all, err := store.ListReceipts(cmd.Context())
		if err != nil {
			return err
		}
		for i := range all {
			receipts = append(receipts, &all[i])
		}
	}
	if len(receipts) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no receipts processed yet"))
		return nil
	}

	l := newLedger()
	stats := l.Summarize(receipts)

	var personRows [][]string
	for _, person := range sortedKeys(stats.PersonTotals) {
		personRows = append(personRows, []string{person, cli.FormatAmount(stats.PersonTotals[person])})
	}
	fmt.Println(cli.FormatTitle("Per-person totals"))
	fmt.Println(cli.RenderTable([]string{"Person", "Owes"}, personRows))

	var shopRows [][]string
	for _, shop := range stats.ByShop {
		shopRows = append(shopRows, []string{shop.Shop, fmt.Sprintf("%d", shop.Count), cli.FormatAmount(shop.Total)})
	}
	fmt.Println(cli.FormatTitle("Per-shop totals"))
	fmt.Println(cli.RenderTable([]string{"Shop", "Receipts", "Total"}, shopRows))

	fmt.Println(cli.RenderBox("Summary", fmt.Sprintf(
		"%d receipt(s), %d item(s)\ngrand total %s, average receipt %s",
		stats.ReceiptCount, stats.ItemCount,
		cli.FormatAmount(stats.GrandTotal), cli.FormatAmount(stats.AverageReceipt))))

	// Surface drift per receipt so nothing slips into the totals silently.
	for _, receipt := range receipts {
		if warning, derr := l.CheckDrift(receipt); warning != nil {
			msg := fmt.Sprintf("receipt %s: item sum %.2f vs printed %.2f",
				receipt.ID, warning.ItemSum, warning.PrintedTotal)
			if derr != nil {
				fmt.Println(cli.FormatError(msg))
			} else {
				fmt.Println(cli.FormatWarning(msg))
			}
		}
	}
	return nil
}

func settleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Compute who owes whom",
		Long: `Compare what each person actually paid with what the ledger says they
owe, and print the transfers that even it out.

Example:
  bonsplit settle --paid anna=52.30 --paid ben=0`,
		RunE: runSettle,
	}

	cmd.Flags().StringArray("paid", nil, "person=amount actually paid (repeatable)")

	return cmd
}

func runSettle(cmd *cobra.Command, _ []string) error {
	paidArgs, _ := cmd.Flags().GetStringArray("paid")
	if len(paidArgs) == 0 {
		return fmt.Errorf("at least one --paid person=amount is required")
	}

	paidShares, err := parseShareArgs(paidArgs)
	if err != nil {
		return err
	}
	paid := map[string]float64(paidShares)

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	all, err := store.ListReceipts(cmd.Context())
	if err != nil {
		return err
	}
	receipts := make([]*model.Receipt, 0, len(all))
	for i := range all {
		receipts = append(receipts, &all[i])
	}

	owed := newLedger().BatchTotals(receipts)
	transfers := ledger.Settle(paid, owed)

	if len(transfers) == 0 {
		fmt.Println(cli.FormatSuccess("all settled, nobody owes anything"))
		return nil
	}

	var rows [][]string
	for _, transfer := range transfers {
		rows = append(rows, []string{transfer.From, transfer.To, cli.FormatAmount(transfer.Amount)})
	}
	fmt.Println(cli.FormatTitle("Settlement"))
	fmt.Println(cli.RenderTable([]string{"From", "To", "Amount"}, rows))
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
