package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/bonsplit/bonsplit/internal/model"
)

func testReceipt() *model.Receipt {
	return &model.Receipt{
		ID:           "r1",
		Shop:         "REWE",
		PrintedTotal: 10.00,
		Items: []model.LineItem{
			{
				ID:        "i1",
				RawName:   "Milch",
				UnitPrice: 4.00,
				Shares:    model.ShareVector{"anna": 0.5, "ben": 0.5},
			},
			{
				ID:        "i2",
				RawName:   "Wein",
				UnitPrice: 6.00,
				Shares:    model.ShareVector{"anna": 0.75, "ben": 0.25},
			},
			{
				ID:            "i3",
				RawName:       "AKTION",
				UnitPrice:     1.50,
				IsPromotional: true,
			},
			{
				ID:        "i4",
				RawName:   "Pfand",
				UnitPrice: 2.00,
				Voided:    true,
				Shares:    model.ShareVector{"anna": 0.5, "ben": 0.5},
			},
		},
	}
}

func TestPersonTotals(t *testing.T) {
	l := New(0)
	totals := l.PersonTotals(testReceipt())

	// anna: 0.5*4 + 0.75*6 = 6.50; ben: 0.5*4 + 0.25*6 = 3.50.
	if math.Abs(totals["anna"]-6.50) > 1e-9 {
		t.Errorf("anna total = %v, want 6.50", totals["anna"])
	}
	if math.Abs(totals["ben"]-3.50) > 1e-9 {
		t.Errorf("ben total = %v, want 3.50", totals["ben"])
	}

	sum := totals["anna"] + totals["ben"]
	if math.Abs(sum-10.00) > 1e-9 {
		t.Errorf("person totals sum to %v, want the billable total 10.00", sum)
	}
}

func TestCheckDrift(t *testing.T) {
	tests := []struct {
		name         string
		printedTotal float64
		wantWarning  bool
		wantError    bool
	}{
		{name: "exact match", printedTotal: 10.00},
		{name: "no printed total", printedTotal: 0},
		{name: "within tolerance", printedTotal: 10.30, wantWarning: true},
		{name: "beyond tolerance", printedTotal: 12.00, wantWarning: true, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receipt := testReceipt()
			receipt.PrintedTotal = tt.printedTotal

			warning, err := New(0.05).CheckDrift(receipt)

			if (warning != nil) != tt.wantWarning {
				t.Errorf("warning = %v, want warning: %v", warning, tt.wantWarning)
			}
			if (err != nil) != tt.wantError {
				t.Errorf("err = %v, want error: %v", err, tt.wantError)
			}
			if tt.wantError {
				var driftErr *DriftError
				if !errors.As(err, &driftErr) {
					t.Fatalf("err = %T, want *DriftError", err)
				}
				if driftErr.ReceiptID != "r1" {
					t.Errorf("ReceiptID = %q, want r1", driftErr.ReceiptID)
				}
			}
		})
	}
}

func TestCheckDrift_CustomTolerance(t *testing.T) {
	receipt := testReceipt()
	receipt.PrintedTotal = 10.30

	// 3% drift passes the default 5% but not a 1% tolerance.
	if _, err := New(0.05).CheckDrift(receipt); err != nil {
		t.Errorf("tolerance 0.05: unexpected error %v", err)
	}
	if _, err := New(0.01).CheckDrift(receipt); err == nil {
		t.Error("tolerance 0.01: expected DriftError")
	}
}

func TestSettle(t *testing.T) {
	paid := map[string]float64{"anna": 30.00, "ben": 0.00, "cara": 0.00}
	owed := map[string]float64{"anna": 10.00, "ben": 12.00, "cara": 8.00}

	transfers := Settle(paid, owed)

	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2: %+v", len(transfers), transfers)
	}
	for _, tr := range transfers {
		if tr.To != "anna" {
			t.Errorf("transfer to %q, want anna", tr.To)
		}
	}

	received := 0.0
	for _, tr := range transfers {
		received += tr.Amount
	}
	if math.Abs(received-20.00) > 0.01 {
		t.Errorf("anna receives %v, want 20.00", received)
	}
}

func TestSettle_Balanced(t *testing.T) {
	paid := map[string]float64{"anna": 10.00, "ben": 10.00}
	owed := map[string]float64{"anna": 10.00, "ben": 10.00}

	if transfers := Settle(paid, owed); len(transfers) != 0 {
		t.Errorf("balanced batch produced transfers: %+v", transfers)
	}
}

func TestSummarize(t *testing.T) {
	r1 := testReceipt()
	r2 := &model.Receipt{
		ID:   "r2",
		Shop: "EDEKA",
		Items: []model.LineItem{
			{ID: "i5", RawName: "Brot", UnitPrice: 3.00, Shares: model.ShareVector{"anna": 0.5, "ben": 0.5}},
		},
	}

	stats := New(0).Summarize([]*model.Receipt{r1, r2})

	if stats.ReceiptCount != 2 {
		t.Errorf("ReceiptCount = %d, want 2", stats.ReceiptCount)
	}
	if stats.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3 billable items", stats.ItemCount)
	}
	if math.Abs(stats.GrandTotal-13.00) > 1e-9 {
		t.Errorf("GrandTotal = %v, want 13.00", stats.GrandTotal)
	}
	if math.Abs(stats.AverageReceipt-6.50) > 1e-9 {
		t.Errorf("AverageReceipt = %v, want 6.50", stats.AverageReceipt)
	}
	if len(stats.ByShop) != 2 || stats.ByShop[0].Shop != "REWE" {
		t.Errorf("ByShop = %+v, want REWE first", stats.ByShop)
	}
}
