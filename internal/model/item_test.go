package model

import (
	"math"
	"testing"
)

func TestShareVector_Validate(t *testing.T) {
	tests := []struct {
		shares  ShareVector
		name    string
		wantErr bool
	}{
		{
			name:   "even two-person split",
			shares: ShareVector{"anna": 0.5, "ben": 0.5},
		},
		{
			name:   "uneven but complete split",
			shares: ShareVector{"anna": 0.7, "ben": 0.3},
		},
		{
			name:   "one person carries everything",
			shares: ShareVector{"anna": 1.0, "ben": 0.0},
		},
		{
			name:   "sum within epsilon",
			shares: ShareVector{"anna": 0.3333333, "ben": 0.3333333, "cara": 0.3333334},
		},
		{
			name:    "sum above one",
			shares:  ShareVector{"anna": 0.7, "ben": 0.4},
			wantErr: true,
		},
		{
			name:    "sum below one",
			shares:  ShareVector{"anna": 0.2, "ben": 0.2},
			wantErr: true,
		},
		{
			name:    "negative fraction",
			shares:  ShareVector{"anna": 1.5, "ben": -0.5},
			wantErr: true,
		},
		{
			name:    "empty vector",
			shares:  ShareVector{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shares.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEqualShares(t *testing.T) {
	tests := []struct {
		name    string
		persons []string
	}{
		{name: "two persons", persons: []string{"anna", "ben"}},
		{name: "three persons", persons: []string{"anna", "ben", "cara"}},
		{name: "seven persons", persons: []string{"a", "b", "c", "d", "e", "f", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := EqualShares(tt.persons)
			if len(shares) != len(tt.persons) {
				t.Fatalf("EqualShares() returned %d entries, want %d", len(shares), len(tt.persons))
			}
			if err := shares.Validate(); err != nil {
				t.Errorf("EqualShares() produced invalid vector: %v", err)
			}
			// Every person should hold roughly the same fraction.
			want := 1.0 / float64(len(tt.persons))
			for person, fraction := range shares {
				if math.Abs(fraction-want) > 1e-9 {
					t.Errorf("share for %s = %v, want ~%v", person, fraction, want)
				}
			}
		})
	}
}

func TestLineItem_Billable(t *testing.T) {
	item := LineItem{UnitPrice: 2.99}
	if !item.Billable() {
		t.Error("plain item should be billable")
	}

	item.IsPromotional = true
	if item.Billable() {
		t.Error("promotional item should not be billable")
	}

	item.IsPromotional = false
	item.Voided = true
	if item.Billable() {
		t.Error("voided item should not be billable")
	}
}
