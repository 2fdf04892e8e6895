package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// knownShops maps vocabulary found on receipts to canonical shop names.
var knownShops = []string{
	"REWE",
	"EDEKA",
	"ALDI",
	"LIDL",
	"KAUFLAND",
	"NETTO",
	"PENNY",
	"ROSSMANN",
	"TEGUT",
	"BAUHAUS",
	"HORNBACH",
	"BIO COMPANY",
	"DENNS",
	"ALNATURA",
	"DM",
}

var (
	dateRe      = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})`)
	totalLineRe = regexp.MustCompile(`(?i)(?:SUMME|TOTAL|ENDSUMME|ZU ?ZAHLEN)[:\s]*(-?\d+[.,]\d{2})`)
	amountRe    = regexp.MustCompile(`(\d+[.,]\d{2})\s*(?:€|EUR)?`)
)

// Metadata holds what could be recovered from the raw receipt text beyond
// the item lines themselves.
type Metadata struct {
	Date         time.Time
	Shop         string
	PrintedTotal float64
	TotalFound   bool
}

// ExtractMetadata scans raw receipt text for the shop name, purchase date
// and the printed total. Everything here is best-effort; missing fields
// stay at their zero value and the caller decides how to proceed.
func ExtractMetadata(text string) Metadata {
	return Metadata{
		Shop:         extractShop(text),
		Date:         extractDate(text),
		PrintedTotal: extractPrintedTotal(text),
		TotalFound:   hasPrintedTotal(text),
	}
}

func extractShop(text string) string {
	upper := strings.ToUpper(text)
	for _, shop := range knownShops {
		if strings.Contains(upper, shop) {
			return shop
		}
	}

	// Fall back to the first plausible header line.
	for _, line := range strings.Split(text, "\n")[:min(5, strings.Count(text, "\n")+1)] {
		line = strings.TrimSpace(line)
		if len(line) > 3 && len(line) < 50 && !isNumeric(line) {
			return line
		}
	}
	return ""
}

func extractDate(text string) time.Time {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}

	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}

	t, err := time.Parse("2.1.2006", m[1]+"."+m[2]+"."+year)
	if err != nil {
		return time.Time{}
	}
	return t
}

// extractPrintedTotal prefers an explicitly marked total line; otherwise
// the largest amount on the receipt is the most likely candidate.
func extractPrintedTotal(text string) float64 {
	if m := totalLineRe.FindStringSubmatch(text); m != nil {
		if price, ok := ParsePrice(m[1]); ok {
			return price
		}
	}

	var amounts []float64
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		if price, ok := ParsePrice(m[1]); ok && price > 0 {
			amounts = append(amounts, price)
		}
	}
	if len(amounts) == 0 {
		return 0
	}

	sort.Float64s(amounts)
	return amounts[len(amounts)-1]
}

func hasPrintedTotal(text string) bool {
	return totalLineRe.MatchString(text) || amountRe.MatchString(text)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
