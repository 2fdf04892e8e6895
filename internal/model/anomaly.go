package model

import "time"

// AnomalyKind identifies the category of a recorded anomaly.
type AnomalyKind string

// Anomaly kinds.
const (
	// AnomalyOrphanPromotion marks a discount line with no preceding
	// non-promotional item to fold into.
	AnomalyOrphanPromotion AnomalyKind = "orphan_promotion"
	// AnomalyDrift marks a receipt whose item sum diverges from the
	// printed total beyond tolerance.
	AnomalyDrift AnomalyKind = "drift"
)

// Anomaly records something suspicious found during processing. Anomalies
// are surfaced to the operator and persisted, never silently discarded.
type Anomaly struct {
	RecordedAt time.Time
	Kind       AnomalyKind
	ReceiptID  string
	ItemName   string
	Note       string
	Amount     float64
	Position   int
}
