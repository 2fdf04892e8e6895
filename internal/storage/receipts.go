package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/model"
)

// SaveReceipt persists a receipt and all of its line items atomically.
func (s *SQLiteStorage) SaveReceipt(ctx context.Context, receipt *model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipt(receipt); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveReceiptTx(ctx, tx, receipt); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStorage) saveReceiptTx(ctx context.Context, q querier, receipt *model.Receipt) error {
	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO receipts (id, source_path, shop, date, printed_total)
		VALUES (?, ?, ?, ?, ?)
	`, receipt.ID, receipt.SourcePath, receipt.Shop, nullableTime(receipt.Date), receipt.PrintedTotal)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: receipt %s", common.ErrDuplicateEntry, receipt.ID)
	}

	for i := range receipt.Items {
		item := &receipt.Items[i]
		shares, err := encodeShares(item.Shares)
		if err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO line_items (
				id, receipt_id, position, raw_name, corrected_name,
				unit_price, shares, is_promotional, voided
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, receipt.ID, item.Position, item.RawName, item.CorrectedName,
			item.UnitPrice, shares, item.IsPromotional, item.Voided)
		if err != nil {
			return fmt.Errorf("failed to save item %s: %w", item.ID, err)
		}
	}
	return nil
}

// GetReceipt loads a receipt and its items in printed order.
func (s *SQLiteStorage) GetReceipt(ctx context.Context, id string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getReceiptTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getReceiptTx(ctx context.Context, q querier, id string) (*model.Receipt, error) {
	receipt := &model.Receipt{}
	var date sql.NullTime
	var sourcePath, shop sql.NullString

	err := q.QueryRowContext(ctx, `
		SELECT id, source_path, shop, date, printed_total
		FROM receipts WHERE id = ?
	`, id).Scan(&receipt.ID, &sourcePath, &shop, &date, &receipt.PrintedTotal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: receipt %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}

	receipt.SourcePath = sourcePath.String
	receipt.Shop = shop.String
	if date.Valid {
		receipt.Date = date.Time
	}

	receipt.Items, err = s.receiptItemsTx(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *SQLiteStorage) receiptItemsTx(ctx context.Context, q querier, receiptID string) ([]model.LineItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, receipt_id, position, raw_name, corrected_name,
		       unit_price, shares, is_promotional, voided
		FROM line_items
		WHERE receipt_id = ?
		ORDER BY position
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
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

// ListReceipts returns all receipts with their items, newest first.
func (s *SQLiteStorage) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM receipts ORDER BY date DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan receipt id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	receipts := make([]model.Receipt, 0, len(ids))
	for _, id := range ids {
		receipt, err := s.getReceiptTx(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *receipt)
	}
	return receipts, nil
}

// encodeShares serializes a share vector as JSON, nil when unassigned.
func encodeShares(shares model.ShareVector) (any, error) {
	if len(shares) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(shares)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shares: %w", err)
	}
	return string(data), nil
}

func decodeShares(raw sql.NullString) (model.ShareVector, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var shares model.ShareVector
	if err := json.Unmarshal([]byte(raw.String), &shares); err != nil {
		return nil, fmt.Errorf("failed to decode shares: %w", err)
	}
	return shares, nil
}

// nullableTime keeps zero times out of the database.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
