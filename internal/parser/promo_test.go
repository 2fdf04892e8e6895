package parser

import (
	"math"
	"testing"

	"github.com/bonsplit/bonsplit/internal/model"
)

func item(name string, price float64, pos int) model.LineItem {
	return model.LineItem{ID: name, RawName: name, UnitPrice: price, Position: pos}
}

func TestResolvePromotions_FoldsIntoPrecedingItem(t *testing.T) {
	items := []model.LineItem{
		item("KAFFEE", 5.00, 0),
		item("SAFT", 5.50, 1),
		item("AKTION", -0.50, 2),
	}

	anomalies := ResolvePromotions(items)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %+v", anomalies)
	}

	if items[1].UnitPrice != 5.00 {
		t.Errorf("SAFT price = %v, want 5.00 after folding", items[1].UnitPrice)
	}
	if !items[2].IsPromotional {
		t.Error("AKTION line should be flagged promotional")
	}
	if items[0].UnitPrice != 5.00 {
		t.Errorf("KAFFEE price changed to %v, discount applied to wrong item", items[0].UnitPrice)
	}

	// The receipt-total property from the reconciliation design: 5.00 +
	// 5.50 with a -0.50 promotion reconciles to a printed total of 10.00.
	total := 0.0
	for i := range items {
		if items[i].Billable() {
			total += items[i].UnitPrice
		}
	}
	if math.Abs(total-10.00) > 1e-9 {
		t.Errorf("billable total = %v, want 10.00", total)
	}
}

func TestResolvePromotions_SignIsIgnored(t *testing.T) {
	// Some receipts print the discount without a sign.
	items := []model.LineItem{
		item("KAESE", 4.00, 0),
		item("RABATT", 1.00, 1),
	}

	ResolvePromotions(items)

	if items[0].UnitPrice != 3.00 {
		t.Errorf("KAESE price = %v, want 3.00", items[0].UnitPrice)
	}
}

func TestResolvePromotions_FloorsAtZero(t *testing.T) {
	items := []model.LineItem{
		item("PROBE", 0.50, 0),
		item("GUTSCHRIFT", -2.00, 1),
	}

	ResolvePromotions(items)

	if items[0].UnitPrice != 0 {
		t.Errorf("price = %v, want floor at 0", items[0].UnitPrice)
	}
}

func TestResolvePromotions_OrphanIsFlaggedNotApplied(t *testing.T) {
	items := []model.LineItem{
		item("AKTION", -0.50, 0),
		item("MILCH", 1.19, 1),
	}

	anomalies := ResolvePromotions(items)

	if len(anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(anomalies))
	}
	if anomalies[0].Kind != model.AnomalyOrphanPromotion {
		t.Errorf("anomaly kind = %q", anomalies[0].Kind)
	}
	if !items[0].IsPromotional {
		t.Error("orphaned discount must still be excluded from billing")
	}
	if items[1].UnitPrice != 1.19 {
		t.Errorf("MILCH price = %v, orphan discount must not be applied forward", items[1].UnitPrice)
	}
}

func TestResolvePromotions_DiscountAfterDiscountIsOrphaned(t *testing.T) {
	items := []model.LineItem{
		item("WEIN", 9.00, 0),
		item("AKTION", -1.00, 1),
		item("RABATT", -0.50, 2),
	}

	anomalies := ResolvePromotions(items)

	if items[0].UnitPrice != 8.00 {
		t.Errorf("WEIN price = %v, want 8.00", items[0].UnitPrice)
	}
	if len(anomalies) != 1 {
		t.Fatalf("second discount should be orphaned, got %d anomalies", len(anomalies))
	}
}

func TestResolvePromotions_Idempotent(t *testing.T) {
	items := []model.LineItem{
		item("KAFFEE", 5.00, 0),
		item("SAFT", 5.50, 1),
		item("AKTION", -0.50, 2),
	}

	ResolvePromotions(items)
	priceAfterFirst := items[1].UnitPrice

	anomalies := ResolvePromotions(items)

	if items[1].UnitPrice != priceAfterFirst {
		t.Errorf("second resolve changed price from %v to %v", priceAfterFirst, items[1].UnitPrice)
	}
	if len(anomalies) != 0 {
		t.Errorf("second resolve produced anomalies: %+v", anomalies)
	}
}

func TestIsDiscountMarked(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "AKTION -0,50", want: true},
		{name: "Rabatt Treuekarte", want: true},
		{name: "GUTSCHRIFT", want: true},
		{name: "reduzierter Artikel", want: true},
		{name: "BIO BANANEN", want: false},
		{name: "AKTIONSWOCHEN-PROSPEKT", want: true},
	}

	for _, tt := range tests {
		if got := IsDiscountMarked(tt.name); got != tt.want {
			t.Errorf("IsDiscountMarked(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
