package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bonsplit/bonsplit/internal/cli"
	"github.com/bonsplit/bonsplit/internal/split"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show share history and solo-buyer insights",
		Long: `List recent split choices and the products one person essentially
pays for alone. Solo-buyer candidates are good defaults for
'bonsplit split uniform'.`,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "number of recent choices to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.GetShareLog(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no share history yet"))
		return nil
	}

	insights := split.SoloBuyers(records)
	if len(insights) > 0 {
		var rows [][]string
		for _, insight := range insights {
			rows = append(rows, []string{
				insight.Name,
				insight.Person,
				fmt.Sprintf("%d/%d", insight.SoloCount, insight.Purchases),
				fmt.Sprintf("%.0f%%", insight.Ratio*100),
			})
		}
		fmt.Println(cli.FormatTitle("Solo buyers"))
		fmt.Println(cli.RenderTable([]string{"Product", "Person", "Solo", "Ratio"}, rows))
	}

	start := len(records) - limit
	if start < 0 {
		start = 0
	}
	var rows [][]string
	for _, record := range records[start:] {
		shares := ""
		for _, person := range record.Shares.Persons() {
			if shares != "" {
				shares += "  "
			}
			shares += fmt.Sprintf("%s %.0f%%", person, record.Shares[person]*100)
		}
		rows = append(rows, []string{
			record.RecordedAt.Format("2006-01-02 15:04"),
			record.Name,
			shares,
		})
	}
	fmt.Println(cli.FormatTitle("Recent choices"))
	fmt.Println(cli.RenderTable([]string{"When", "Product", "Shares"}, rows))
	return nil
}

func anomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "List recorded processing anomalies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			receiptID, _ := cmd.Flags().GetString("receipt")

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			anomalies, err := store.GetAnomalies(cmd.Context(), receiptID)
			if err != nil {
				return err
			}
			if len(anomalies) == 0 {
				fmt.Println(cli.FormatSuccess("no anomalies recorded"))
				return nil
			}

			var rows [][]string
			for _, anomaly := range anomalies {
				rows = append(rows, []string{
					anomaly.RecordedAt.Format("2006-01-02"),
					string(anomaly.Kind),
					anomaly.ReceiptID,
					anomaly.Note,
					cli.FormatAmount(anomaly.Amount),
				})
			}
			fmt.Println(cli.FormatTitle("Anomalies"))
			fmt.Println(cli.RenderTable([]string{"When", "Kind", "Receipt", "Note", "Amount"}, rows))
			return nil
		},
	}

	cmd.Flags().String("receipt", "", "limit to one receipt id")

	return cmd
}
