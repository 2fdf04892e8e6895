package model

import "time"

// ShareRecord is one historical share assignment for a product name.
// The history is append-only; the latest record for a name is the
// proposed default the next time the same product shows up.
type ShareRecord struct {
	RecordedAt time.Time
	Name       string
	Shares     ShareVector
}
