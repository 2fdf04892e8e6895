package model

import (
	"math"
	"testing"
	"time"
)

func TestReceipt_BillableTotal(t *testing.T) {
	receipt := &Receipt{
		Items: []LineItem{
			{ID: "i1", UnitPrice: 4.00},
			{ID: "i2", UnitPrice: 6.00},
			{ID: "i3", UnitPrice: 1.50, IsPromotional: true},
			{ID: "i4", UnitPrice: 2.00, Voided: true},
		},
	}

	if total := receipt.BillableTotal(); math.Abs(total-10.00) > 1e-9 {
		t.Errorf("BillableTotal = %v, want 10.00 (promotional and voided excluded)", total)
	}
}

func TestReceipt_ItemByID(t *testing.T) {
	receipt := &Receipt{Items: []LineItem{{ID: "i1"}, {ID: "i2"}}}

	if item := receipt.ItemByID("i2"); item == nil || item.ID != "i2" {
		t.Errorf("ItemByID(i2) = %v", item)
	}
	if item := receipt.ItemByID("ghost"); item != nil {
		t.Errorf("ItemByID(ghost) = %v, want nil", item)
	}
}

func TestReceipt_SuggestedFilename(t *testing.T) {
	tests := []struct {
		name    string
		receipt Receipt
		want    string
	}{
		{
			name: "full metadata",
			receipt: Receipt{
				Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Shop:         "REWE",
				PrintedTotal: 34.50,
			},
			want: "2024-01-15_REWE_34.50EUR",
		},
		{
			name:    "missing everything",
			receipt: Receipt{},
			want:    "unbekannt_Unbekannt_0.00EUR",
		},
		{
			name: "unsafe characters replaced",
			receipt: Receipt{
				Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Shop:         "BIO COMPANY",
				PrintedTotal: 12.00,
			},
			want: "2024-01-15_BIO_COMPANY_12.00EUR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.receipt.SuggestedFilename(); got != tt.want {
				t.Errorf("SuggestedFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
