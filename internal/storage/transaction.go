package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/service"
)

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Transaction methods delegate to the main storage with the transaction.
func (t *sqliteTransaction) SaveReceipt(ctx context.Context, receipt *model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipt(receipt); err != nil {
		return err
	}
	return t.storage.saveReceiptTx(ctx, t.tx, receipt)
}

func (t *sqliteTransaction) GetReceipt(ctx context.Context, id string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getReceiptTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetItem(ctx context.Context, id string) (*model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getItemTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetBillableItems(ctx context.Context) ([]model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getBillableItemsTx(ctx, t.tx)
}

func (t *sqliteTransaction) UpdateItemShares(ctx context.Context, id string, shares model.ShareVector) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := shares.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return t.storage.updateItemSharesTx(ctx, t.tx, id, shares)
}

func (t *sqliteTransaction) UpdateItemName(ctx context.Context, id, correctedName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(correctedName, "correctedName"); err != nil {
		return err
	}
	return t.storage.updateItemNameTx(ctx, t.tx, id, correctedName)
}

func (t *sqliteTransaction) RecordShareChoice(ctx context.Context, name string, shares model.ShareVector) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}
	if err := shares.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return t.storage.recordShareChoiceTx(ctx, t.tx, name, shares)
}

func (t *sqliteTransaction) GetLastShares(ctx context.Context, name string) (model.ShareVector, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return t.storage.getLastSharesTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) SaveAnomaly(ctx context.Context, anomaly *model.Anomaly) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if anomaly == nil {
		return fmt.Errorf("%w: anomaly", ErrNilParameter)
	}
	return t.storage.saveAnomalyTx(ctx, t.tx, anomaly)
}

func (t *sqliteTransaction) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	return t.storage.ListReceipts(ctx)
}

func (t *sqliteTransaction) GetShareLog(ctx context.Context) ([]model.ShareRecord, error) {
	return t.storage.GetShareLog(ctx)
}

func (t *sqliteTransaction) GetAnomalies(ctx context.Context, receiptID string) ([]model.Anomaly, error) {
	return t.storage.GetAnomalies(ctx, receiptID)
}

func (t *sqliteTransaction) VoidItem(ctx context.Context, id string) error {
	return t.storage.VoidItem(ctx, id)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
