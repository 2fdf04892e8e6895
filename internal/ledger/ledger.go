// Package ledger computes per-person totals from itemized receipts and
// reconciles the item sum against the printed receipt total.
package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/bonsplit/bonsplit/internal/model"
)

// DefaultDriftTolerance is the fraction of the printed total beyond
// which drift escalates from a warning to an error.
const DefaultDriftTolerance = 0.05

// DriftError reports a receipt whose billable item sum diverges from
// the printed total beyond tolerance. Export refuses such a receipt
// until the operator acknowledges the drift.
type DriftError struct {
	ReceiptID    string
	PrintedTotal float64
	ItemSum      float64
	Drift        float64
	Tolerance    float64
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("receipt %s: item sum %.2f diverges from printed total %.2f by %.2f (tolerance %.0f%%)",
		e.ReceiptID, e.ItemSum, e.PrintedTotal, e.Drift, e.Tolerance*100)
}

// DriftWarning reports drift within tolerance. It is informational; the
// receipt stays exportable.
type DriftWarning struct {
	ReceiptID    string
	PrintedTotal float64
	ItemSum      float64
	Drift        float64
}

// Ledger computes person totals and checks receipt reconciliation.
type Ledger struct {
	driftTolerance float64
}

// New creates a ledger with the given drift tolerance as a fraction of
// the printed total. Zero or negative tolerance falls back to the default.
func New(driftTolerance float64) *Ledger {
	if driftTolerance <= 0 {
		driftTolerance = DefaultDriftTolerance
	}
	return &Ledger{driftTolerance: driftTolerance}
}

// PersonTotals sums each person's share-weighted cost across the
// billable items of a receipt. Promotional and voided lines contribute
// nothing.
func (l *Ledger) PersonTotals(receipt *model.Receipt) map[string]float64 {
	totals := make(map[string]float64)
	for i := range receipt.Items {
		item := &receipt.Items[i]
		if !item.Billable() {
			continue
		}
		for person, fraction := range item.Shares {
			totals[person] += fraction * item.UnitPrice
		}
	}
	return totals
}

// BatchTotals aggregates person totals across multiple receipts.
func (l *Ledger) BatchTotals(receipts []*model.Receipt) map[string]float64 {
	totals := make(map[string]float64)
	for _, receipt := range receipts {
		for person, amount := range l.PersonTotals(receipt) {
			totals[person] += amount
		}
	}
	return totals
}

// CheckDrift reconciles the billable item sum against the printed total.
// It returns a warning for any measurable drift and an error when the
// drift exceeds the configured tolerance. A receipt without a printed
// total cannot drift.
func (l *Ledger) CheckDrift(receipt *model.Receipt) (*DriftWarning, error) {
	if receipt.PrintedTotal == 0 {
		return nil, nil
	}

	itemSum := receipt.BillableTotal()
	drift := math.Abs(receipt.PrintedTotal - itemSum)
	if drift <= 0.005 {
		// Sub-cent differences are rounding, not drift.
		return nil, nil
	}

	warning := &DriftWarning{
		ReceiptID:    receipt.ID,
		PrintedTotal: receipt.PrintedTotal,
		ItemSum:      itemSum,
		Drift:        drift,
	}

	if drift > l.driftTolerance*math.Abs(receipt.PrintedTotal) {
		return warning, &DriftError{
			ReceiptID:    receipt.ID,
			PrintedTotal: receipt.PrintedTotal,
			ItemSum:      itemSum,
			Drift:        drift,
			Tolerance:    l.driftTolerance,
		}
	}

	return warning, nil
}

// DriftAnomaly converts a drift finding into a persistable anomaly record.
func DriftAnomaly(warning *DriftWarning) model.Anomaly {
	return model.Anomaly{
		Kind:      model.AnomalyDrift,
		ReceiptID: warning.ReceiptID,
		Amount:    warning.Drift,
		Note: fmt.Sprintf("item sum %.2f vs printed total %.2f",
			warning.ItemSum, warning.PrintedTotal),
	}
}

// sortedPersons returns the person keys of a totals map in stable order.
func sortedPersons(totals map[string]float64) []string {
	persons := make([]string, 0, len(totals))
	for person := range totals {
		persons = append(persons, person)
	}
	sort.Strings(persons)
	return persons
}
