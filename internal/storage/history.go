package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/model"
)

// RecordShareChoice appends a chosen split ratio to the history log.
// The log is append-only; earlier choices stay available for insights.
func (s *SQLiteStorage) RecordShareChoice(ctx context.Context, name string, shares model.ShareVector) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}
	if err := shares.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return s.recordShareChoiceTx(ctx, s.db, name, shares)
}

func (s *SQLiteStorage) recordShareChoiceTx(ctx context.Context, q querier, name string, shares model.ShareVector) error {
	encoded, err := encodeShares(shares)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO share_history (name, shares) VALUES (?, ?)
	`, name, encoded)
	if err != nil {
		return fmt.Errorf("failed to record share choice: %w", err)
	}
	return nil
}

// GetLastShares returns the most recently recorded ratio for a product
// name, or ErrNotFound when the product has no history.
func (s *SQLiteStorage) GetLastShares(ctx context.Context, name string) (model.ShareVector, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getLastSharesTx(ctx, s.db, name)
}

func (s *SQLiteStorage) getLastSharesTx(ctx context.Context, q querier, name string) (model.ShareVector, error) {
	var raw sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT shares FROM share_history
		WHERE name = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no share history for %s", common.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load share history: %w", err)
	}
	return decodeShares(raw)
}

// GetShareLog returns the full history log, oldest first.
func (s *SQLiteStorage) GetShareLog(ctx context.Context) ([]model.ShareRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, shares, recorded_at FROM share_history
		ORDER BY recorded_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query share history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ShareRecord
	for rows.Next() {
		var record model.ShareRecord
		var raw sql.NullString
		if err := rows.Scan(&record.Name, &raw, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan share record: %w", err)
		}
		record.Shares, err = decodeShares(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
