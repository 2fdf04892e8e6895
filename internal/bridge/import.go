package bridge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/service"
)

// UnknownRowError marks a row whose id matches no stored item. Such
// rows are skipped; they are never inserted.
type UnknownRowError struct {
	ID   string
	Line int
}

func (e *UnknownRowError) Error() string {
	return fmt.Sprintf("line %d: no item with id %s", e.Line, e.ID)
}

// RowError records why a single row was rejected. The rest of the file
// is still applied.
type RowError struct {
	Err  error
	ID   string
	Line int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d (item %s): %v", e.Line, e.ID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ImportResult summarizes an import run. Errors holds one entry per
// rejected row.
type ImportResult struct {
	Errors    []RowError
	Updated   int
	Unchanged int
}

// Importer applies manual edits from an exported CSV back to storage.
// Only the corrected name and the share columns are writable; prices
// are read-only and a changed price rejects the row.
type Importer struct {
	storage service.Storage
}

// NewImporter creates an importer backed by the given storage.
func NewImporter(storage service.Storage) *Importer {
	return &Importer{storage: storage}
}

// ReadCSV parses a semicolon-separated export and applies each valid
// row. Rows are independent: a bad row is recorded in the result and
// skipped, and the remaining rows are still applied.
func (im *Importer) ReadCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.Comma = csvSeparator

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	layout, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Err: err})
			continue
		}

		changed, rowErr := im.applyRow(ctx, layout, record, line)
		switch {
		case rowErr != nil:
			result.Errors = append(result.Errors, *rowErr)
		case changed:
			result.Updated++
		default:
			result.Unchanged++
		}
	}
	return result, nil
}

// layout maps header columns to their positions. Share columns carry
// the person name they belong to.
type layout struct {
	shareCols map[string]int
	idCol     int
	nameCol   int
	priceCol  int
	width     int
}

func parseHeader(header []string) (*layout, error) {
	l := &layout{
		shareCols: make(map[string]int),
		idCol:     -1,
		nameCol:   -1,
		priceCol:  -1,
		width:     len(header),
	}
	for i, col := range header {
		col = strings.TrimSpace(strings.ToLower(col))
		switch {
		case col == "id":
			l.idCol = i
		case col == "corrected_name":
			l.nameCol = i
		case col == "unit_price":
			l.priceCol = i
		case strings.HasPrefix(col, shareColumnPrefix):
			person := strings.TrimPrefix(col, shareColumnPrefix)
			if person == "" {
				return nil, fmt.Errorf("share column %d has no person name", i+1)
			}
			l.shareCols[person] = i
		}
	}
	if l.idCol < 0 || l.nameCol < 0 || l.priceCol < 0 {
		return nil, errors.New("header must contain id, corrected_name and unit_price columns")
	}
	if len(l.shareCols) < 2 {
		return nil, errors.New("header must contain at least two share columns")
	}
	return l, nil
}

// applyRow validates one record fully before writing anything, then
// applies name and share changes. Reported changed=false means the row
// matched storage exactly.
func (im *Importer) applyRow(ctx context.Context, l *layout, record []string, line int) (bool, *RowError) {
	if len(record) != l.width {
		return false, &RowError{Line: line, Err: fmt.Errorf("expected %d columns, got %d", l.width, len(record))}
	}

	id := strings.TrimSpace(record[l.idCol])
	if id == "" {
		return false, &RowError{Line: line, Err: errors.New("empty id")}
	}

	item, err := im.storage.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, &RowError{Line: line, ID: id, Err: &UnknownRowError{ID: id, Line: line}}
		}
		return false, &RowError{Line: line, ID: id, Err: err}
	}

	price, err := parseDecimal(record[l.priceCol])
	if err != nil {
		return false, &RowError{Line: line, ID: id, Err: fmt.Errorf("bad unit_price: %w", err)}
	}
	if math.Abs(price-item.UnitPrice) > 0.005 {
		return false, &RowError{Line: line, ID: id,
			Err: fmt.Errorf("unit_price changed from %.2f to %.2f, prices are read-only", item.UnitPrice, price)}
	}

	shares := make(model.ShareVector, len(l.shareCols))
	for person, col := range l.shareCols {
		fraction, err := parseDecimal(record[col])
		if err != nil {
			return false, &RowError{Line: line, ID: id, Err: fmt.Errorf("bad share for %s: %w", person, err)}
		}
		shares[person] = fraction
	}
	if err := shares.Validate(); err != nil {
		return false, &RowError{Line: line, ID: id, Err: err}
	}

	name := strings.TrimSpace(record[l.nameCol])
	if name == "" {
		return false, &RowError{Line: line, ID: id, Err: errors.New("empty corrected_name")}
	}

	changed := false
	if name != item.DisplayName() {
		if err := im.storage.UpdateItemName(ctx, id, name); err != nil {
			return false, &RowError{Line: line, ID: id, Err: err}
		}
		changed = true
	}
	if !sharesEqual(shares, item.Shares) {
		if err := im.storage.UpdateItemShares(ctx, id, shares); err != nil {
			return false, &RowError{Line: line, ID: id, Err: err}
		}
		im.recordHistory(ctx, name, shares)
		changed = true
	}
	return changed, nil
}

// recordHistory appends the imported ratio so future proposals for the
// same product pick it up. History failures are logged, not fatal; the
// share update itself already succeeded.
func (im *Importer) recordHistory(ctx context.Context, name string, shares model.ShareVector) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || name == model.Unrecognized {
		return
	}
	if err := im.storage.RecordShareChoice(ctx, key, shares); err != nil {
		slog.Warn("failed to record share history",
			"name", key,
			"error", err)
	}
}

// parseDecimal accepts both decimal separators, since exported files
// pass through spreadsheet tools that localize numbers.
func parseDecimal(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(raw, 64)
}

func sharesEqual(a, b model.ShareVector) bool {
	if len(a) != len(b) {
		return false
	}
	for person, fraction := range a {
		if math.Abs(fraction-b[person]) > model.ShareEpsilon {
			return false
		}
	}
	return true
}
