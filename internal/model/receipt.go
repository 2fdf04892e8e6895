package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Receipt is one processed receipt file and the ordered items on it.
// Item order is the printed order, which matters for promotion folding.
type Receipt struct {
	Date         time.Time
	ID           string
	SourcePath   string
	Shop         string
	Items        []LineItem
	PrintedTotal float64
}

// BillableTotal sums the unit prices of all billable items. The printed
// total is read from the receipt and never recomputed; this sum exists
// only to measure drift against it.
func (r *Receipt) BillableTotal() float64 {
	total := 0.0
	for i := range r.Items {
		if r.Items[i].Billable() {
			total += r.Items[i].UnitPrice
		}
	}
	return total
}

// ItemByID returns the item with the given id, or nil.
func (r *Receipt) ItemByID(id string) *LineItem {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return &r.Items[i]
		}
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

// SuggestedFilename builds a descriptive file name for the source file,
// of the form 2024-01-15_REWE_34.50EUR.
func (r *Receipt) SuggestedFilename() string {
	shop := r.Shop
	if shop == "" {
		shop = "Unbekannt"
	}
	if len(shop) > 15 {
		shop = shop[:15]
	}

	date := "unbekannt"
	if !r.Date.IsZero() {
		date = r.Date.Format("2006-01-02")
	}

	name := fmt.Sprintf("%s_%s_%.2fEUR", date, shop, r.PrintedTotal)
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "_")
}
