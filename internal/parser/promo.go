package parser

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/bonsplit/bonsplit/internal/model"
)

// discountMarkers is the vocabulary of words that flag a line as a
// promotional adjustment rather than a billable product. Matches the
// wording found on German retail receipts.
var discountMarkers = []string{
	"AKTION",
	"RABATT",
	"GUTSCHRIFT",
	"DISCOUNT",
	"REDUZIERT",
	"ERSPARNIS",
	"PREISVORTEIL",
}

// IsDiscountMarked reports whether a line name matches the discount
// vocabulary.
func IsDiscountMarked(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range discountMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// ResolvePromotions scans the ordered item sequence and folds each
// promotional line into the immediately preceding non-promotional item:
// the discount amount is subtracted from that item's price, floored at
// zero, and the promotional line is flagged so it never bills on its own
// while staying in the sequence for audit.
//
// A discount with no preceding non-promotional item cannot be applied to
// anything; it is flagged and recorded as an anomaly instead of being
// guessed at or dropped.
//
// Resolving an already-resolved sequence is a no-op: flagged lines are
// skipped, so prices are never adjusted twice.
func ResolvePromotions(items []model.LineItem) []model.Anomaly {
	var anomalies []model.Anomaly

	for i := range items {
		item := &items[i]
		if item.IsPromotional {
			continue
		}
		if !IsDiscountMarked(item.RawName) && item.UnitPrice >= 0 {
			continue
		}

		// The printed sign is unreliable; a discount is always a
		// negative adjustment.
		discount := math.Abs(item.UnitPrice)

		if i == 0 || items[i-1].IsPromotional {
			item.IsPromotional = true
			anomalies = append(anomalies, model.Anomaly{
				Kind:       model.AnomalyOrphanPromotion,
				ReceiptID:  item.ReceiptID,
				ItemName:   item.RawName,
				Amount:     discount,
				Position:   item.Position,
				Note:       "discount line has no preceding item to fold into",
				RecordedAt: time.Now(),
			})
			slog.Warn("orphaned promotional line",
				"receipt_id", item.ReceiptID,
				"position", item.Position,
				"name", item.RawName)
			continue
		}

		prev := &items[i-1]
		folded := prev.UnitPrice - discount
		if folded < 0 {
			folded = 0
		}

		slog.Debug("folding promotion into preceding item",
			"receipt_id", item.ReceiptID,
			"item", prev.RawName,
			"discount", discount,
			"new_price", folded)

		prev.UnitPrice = folded
		item.IsPromotional = true
	}

	return anomalies
}
