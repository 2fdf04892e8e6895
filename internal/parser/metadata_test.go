package parser

import (
	"testing"
	"time"
)

const sampleReceipt = `REWE Markt GmbH
Musterstr. 12, 10115 Berlin
15.01.2024 18:32

BIO BANANEN          2,99
VOLLKORNBROT         3,49
MILCH 3,5%           1,19
SUMME                7,67
BAR                 10,00
`

func TestExtractMetadata(t *testing.T) {
	md := ExtractMetadata(sampleReceipt)

	if md.Shop != "REWE" {
		t.Errorf("Shop = %q, want REWE", md.Shop)
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !md.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", md.Date, want)
	}
	if md.PrintedTotal != 7.67 {
		t.Errorf("PrintedTotal = %v, want 7.67 from SUMME line", md.PrintedTotal)
	}
}

func TestExtractMetadata_FallbackTotal(t *testing.T) {
	// Without a marked total line the largest amount wins.
	md := ExtractMetadata("EDEKA\n01.02.24\nA 1,00\nB 12,50\nC 3,00\n")

	if md.PrintedTotal != 12.50 {
		t.Errorf("PrintedTotal = %v, want 12.50", md.PrintedTotal)
	}
	if md.Shop != "EDEKA" {
		t.Errorf("Shop = %q, want EDEKA", md.Shop)
	}
	if md.Date.Year() != 2024 {
		t.Errorf("two-digit year not expanded: %v", md.Date)
	}
}

func TestExtractMetadata_UnknownShopHeaderFallback(t *testing.T) {
	md := ExtractMetadata("Bäckerei Sonnenschein\n03.03.2024\nBrezel 0,89\n")

	if md.Shop != "Bäckerei Sonnenschein" {
		t.Errorf("Shop = %q, want header line fallback", md.Shop)
	}
}
