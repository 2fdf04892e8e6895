package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bonsplit/bonsplit/internal/model"
)

// SaveAnomaly persists a processing finding.
func (s *SQLiteStorage) SaveAnomaly(ctx context.Context, anomaly *model.Anomaly) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if anomaly == nil {
		return fmt.Errorf("%w: anomaly", ErrNilParameter)
	}
	if anomaly.Kind == "" {
		return fmt.Errorf("%w: anomaly kind", ErrEmptyString)
	}
	return s.saveAnomalyTx(ctx, s.db, anomaly)
}

func (s *SQLiteStorage) saveAnomalyTx(ctx context.Context, q querier, anomaly *model.Anomaly) error {
	recordedAt := anomaly.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO anomalies (kind, receipt_id, item_name, note, amount, position, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(anomaly.Kind), anomaly.ReceiptID, anomaly.ItemName,
		anomaly.Note, anomaly.Amount, anomaly.Position, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to save anomaly: %w", err)
	}
	return nil
}

// GetAnomalies returns the findings for one receipt, or all findings
// when receiptID is empty.
func (s *SQLiteStorage) GetAnomalies(ctx context.Context, receiptID string) ([]model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT kind, receipt_id, item_name, note, amount, position, recorded_at
		FROM anomalies`
	args := []any{}
	if receiptID != "" {
		query += ` WHERE receipt_id = ?`
		args = append(args, receiptID)
	}
	query += ` ORDER BY recorded_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var anomalies []model.Anomaly
	for rows.Next() {
		var a model.Anomaly
		var kind string
		if err := rows.Scan(&kind, &a.ReceiptID, &a.ItemName, &a.Note,
			&a.Amount, &a.Position, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Kind = model.AnomalyKind(kind)
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}
