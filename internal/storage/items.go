package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/model"
)

const itemColumns = `id, receipt_id, position, raw_name, corrected_name,
	unit_price, shares, is_promotional, voided`

// GetItem loads a single line item by id.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getItemTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getItemTx(ctx context.Context, q querier, id string) (*model.LineItem, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM line_items WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %s", common.ErrNotFound, id)
	}
	return item, err
}

// GetBillableItems returns every item that participates in totals:
// not promotional, not voided.
func (s *SQLiteStorage) GetBillableItems(ctx context.Context) ([]model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getBillableItemsTx(ctx, s.db)
}

func (s *SQLiteStorage) getBillableItemsTx(ctx context.Context, q querier) ([]model.LineItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM line_items
		WHERE is_promotional = 0 AND voided = 0
		ORDER BY receipt_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query billable items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.LineItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemShares replaces an item's share vector. The vector must
// validate; storage is the last line of defense for the sum invariant.
func (s *SQLiteStorage) UpdateItemShares(ctx context.Context, id string, shares model.ShareVector) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := shares.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return s.updateItemSharesTx(ctx, s.db, id, shares)
}

func (s *SQLiteStorage) updateItemSharesTx(ctx context.Context, q querier, id string, shares model.ShareVector) error {
	encoded, err := encodeShares(shares)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE line_items SET shares = ? WHERE id = ?
	`, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update shares: %w", err)
	}
	return requireRow(result, id)
}

// UpdateItemName sets an item's corrected name. The raw extraction is
// immutable; it stays available for audit.
func (s *SQLiteStorage) UpdateItemName(ctx context.Context, id, correctedName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(correctedName, "correctedName"); err != nil {
		return err
	}
	return s.updateItemNameTx(ctx, s.db, id, correctedName)
}

func (s *SQLiteStorage) updateItemNameTx(ctx context.Context, q querier, id, correctedName string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE line_items SET corrected_name = ? WHERE id = ?
	`, correctedName, id)
	if err != nil {
		return fmt.Errorf("failed to update name: %w", err)
	}
	return requireRow(result, id)
}

// VoidItem excludes an item from billing without deleting it. Ids are
// never reused.
func (s *SQLiteStorage) VoidItem(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE line_items SET voided = 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to void item: %w", err)
	}
	return requireRow(result, id)
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.LineItem, error) {
	item := &model.LineItem{}
	var correctedName, shares sql.NullString

	err := row.Scan(&item.ID, &item.ReceiptID, &item.Position, &item.RawName,
		&correctedName, &item.UnitPrice, &shares, &item.IsPromotional, &item.Voided)
	if err != nil {
		return nil, err
	}

	item.CorrectedName = correctedName.String
	item.Shares, err = decodeShares(shares)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	return item, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: item %s", common.ErrNotFound, id)
	}
	return nil
}
