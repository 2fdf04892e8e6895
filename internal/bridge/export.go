// Package bridge moves receipt items between storage and editable
// files: CSV and XLSX out, CSV back in. Rows are matched strictly by
// item id so manual edits survive reordering.
package bridge

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/bonsplit/bonsplit/internal/ledger"
	"github.com/bonsplit/bonsplit/internal/model"
)

// csvSeparator matches the regional spreadsheet convention: semicolons,
// because values use the comma as decimal separator.
const csvSeparator = ';'

const shareColumnPrefix = "share_"

// Exporter writes a receipt's billable items to an editable table.
// Receipts with unacknowledged drift beyond tolerance are refused.
type Exporter struct {
	persons  []string
	ledger   *ledger.Ledger
	ackDrift bool
}

// NewExporter creates an exporter for the configured person set.
// ackDrift lets the operator export a receipt despite a drift error.
func NewExporter(persons []string, l *ledger.Ledger, ackDrift bool) *Exporter {
	sorted := append([]string(nil), persons...)
	sort.Strings(sorted)
	return &Exporter{persons: sorted, ledger: l, ackDrift: ackDrift}
}

// Header returns the column layout: id, corrected_name, unit_price,
// then one share_<person> column per person.
func (e *Exporter) Header() []string {
	header := []string{"id", "corrected_name", "unit_price"}
	for _, person := range e.persons {
		header = append(header, shareColumnPrefix+person)
	}
	return header
}

// WriteCSV writes the receipt's billable items as semicolon-separated
// rows with a header line.
func (e *Exporter) WriteCSV(w io.Writer, receipt *model.Receipt) error {
	if err := e.checkDrift(receipt); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator

	if err := cw.Write(e.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range receipt.Items {
		item := &receipt.Items[i]
		if !item.Billable() {
			continue
		}
		if err := cw.Write(e.row(item)); err != nil {
			return fmt.Errorf("failed to write item %s: %w", item.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the receipt's billable items as a spreadsheet with a
// summary row per person.
func (e *Exporter) WriteXLSX(path string, receipt *model.Receipt) error {
	if err := e.checkDrift(receipt); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", toCellRow(e.Header())); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for i := range receipt.Items {
		item := &receipt.Items[i]
		if !item.Billable() {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, toCellRow(e.row(item))); err != nil {
			return fmt.Errorf("failed to write item %s: %w", item.ID, err)
		}
		row++
	}

	// Blank line, then each person's total for eyeballing the split.
	row++
	totals := e.ledger.PersonTotals(receipt)
	for _, person := range e.persons {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{person, totals[person]}); err != nil {
			return fmt.Errorf("failed to write totals: %w", err)
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) checkDrift(receipt *model.Receipt) error {
	_, err := e.ledger.CheckDrift(receipt)
	if err != nil && !e.ackDrift {
		return err
	}
	return nil
}

func (e *Exporter) row(item *model.LineItem) []string {
	record := []string{
		item.ID,
		item.DisplayName(),
		formatPrice(item.UnitPrice),
	}
	for _, person := range e.persons {
		record = append(record, formatShare(item.Shares[person]))
	}
	return record
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

func formatShare(share float64) string {
	return strconv.FormatFloat(share, 'f', -1, 64)
}

func toCellRow(record []string) *[]interface{} {
	cells := make([]interface{}, len(record))
	for i, v := range record {
		cells[i] = v
	}
	return &cells
}
