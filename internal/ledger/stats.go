package ledger

import (
	"sort"

	"github.com/bonsplit/bonsplit/internal/model"
)

// ShopTotal is the spend aggregated for one shop.
type ShopTotal struct {
	Shop  string
	Count int
	Total float64
}

// Statistics summarizes a batch of processed receipts.
type Statistics struct {
	PersonTotals   map[string]float64
	ByShop         []ShopTotal
	ReceiptCount   int
	ItemCount      int
	GrandTotal     float64
	AverageReceipt float64
}

// Summarize computes cross-receipt statistics: grand total, per-person
// and per-shop breakdowns, and the average receipt value.
func (l *Ledger) Summarize(receipts []*model.Receipt) Statistics {
	stats := Statistics{
		PersonTotals: l.BatchTotals(receipts),
		ReceiptCount: len(receipts),
	}

	byShop := make(map[string]*ShopTotal)
	for _, receipt := range receipts {
		total := receipt.BillableTotal()
		stats.GrandTotal += total
		for i := range receipt.Items {
			if receipt.Items[i].Billable() {
				stats.ItemCount++
			}
		}

		shop := receipt.Shop
		if shop == "" {
			shop = "Unbekannt"
		}
		entry := byShop[shop]
		if entry == nil {
			entry = &ShopTotal{Shop: shop}
			byShop[shop] = entry
		}
		entry.Count++
		entry.Total += total
	}

	for _, entry := range byShop {
		stats.ByShop = append(stats.ByShop, *entry)
	}
	sort.Slice(stats.ByShop, func(i, j int) bool {
		if stats.ByShop[i].Total != stats.ByShop[j].Total {
			return stats.ByShop[i].Total > stats.ByShop[j].Total
		}
		return stats.ByShop[i].Shop < stats.ByShop[j].Shop
	})

	if stats.ReceiptCount > 0 {
		stats.AverageReceipt = stats.GrandTotal / float64(stats.ReceiptCount)
	}
	return stats
}
