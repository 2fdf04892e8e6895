// Package parser turns raw extracted token streams into normalized line
// items and resolves promotional discount lines against them.
package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bonsplit/bonsplit/internal/model"
)

// Token is one raw (name, price) candidate pair produced by the external
// text-extraction collaborator. Both fields arrive as strings and may be
// malformed.
type Token struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ParseError indicates the token stream was unusable as a whole. An empty
// receipt is always a ParseError, never a silently-empty result, because
// it points at upstream extraction failure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("receipt parse failed: %s", e.Reason)
}

// Parser converts token pairs into line items.
type Parser struct{}

// NewParser creates a new line item parser.
func NewParser() *Parser {
	return &Parser{}
}

// priceRe accepts locale-formatted decimals with comma or dot separators
// and an optional sign, after currency markers have been stripped.
var priceRe = regexp.MustCompile(`^-?\d+(?:[.,]\d{1,2})?$`)

// Parse converts the ordered token stream for one receipt into line items.
// Pairs whose price token cannot be parsed are dropped with a log line;
// raw names are kept verbatim for downstream correction. Only prices are
// canonicalized here.
func (p *Parser) Parse(receiptID string, tokens []Token) ([]model.LineItem, error) {
	if len(tokens) == 0 {
		return nil, &ParseError{Reason: "empty token stream"}
	}

	items := make([]model.LineItem, 0, len(tokens))
	for i, tok := range tokens {
		price, ok := ParsePrice(tok.Price)
		if !ok {
			slog.Debug("dropping token with unparseable price",
				"receipt_id", receiptID,
				"position", i,
				"name", tok.Name,
				"price", tok.Price)
			continue
		}

		// Negative prices only make sense as discount adjustments; a
		// negative price on an unmarked line is extraction noise.
		if price < 0 && !IsDiscountMarked(tok.Name) {
			slog.Debug("dropping negative price on non-discount line",
				"receipt_id", receiptID,
				"position", i,
				"name", tok.Name)
			continue
		}

		items = append(items, model.LineItem{
			ID:        uuid.NewString(),
			ReceiptID: receiptID,
			RawName:   tok.Name,
			UnitPrice: price,
			Position:  len(items),
		})
	}

	if len(items) == 0 {
		return nil, &ParseError{Reason: "no token pair had a usable price"}
	}

	return items, nil
}

// ParsePrice canonicalizes a locale-formatted price token to a decimal.
// German receipts print the comma as decimal separator; currency markers
// and surrounding whitespace are tolerated. Returns false when the token
// is not a price.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	for _, marker := range []string{"€", "EUR", "$", "£"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	if !priceRe.MatchString(s) {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", ".")
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
