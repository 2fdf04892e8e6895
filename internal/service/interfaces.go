// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/bonsplit/bonsplit/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Receipt operations
	SaveReceipt(ctx context.Context, receipt *model.Receipt) error
	GetReceipt(ctx context.Context, id string) (*model.Receipt, error)
	ListReceipts(ctx context.Context) ([]model.Receipt, error)

	// Line item operations
	GetItem(ctx context.Context, id string) (*model.LineItem, error)
	GetBillableItems(ctx context.Context) ([]model.LineItem, error)
	UpdateItemShares(ctx context.Context, id string, shares model.ShareVector) error
	UpdateItemName(ctx context.Context, id, correctedName string) error
	VoidItem(ctx context.Context, id string) error

	// Share history (append-only log used for assignment defaults)
	RecordShareChoice(ctx context.Context, name string, shares model.ShareVector) error
	GetLastShares(ctx context.Context, name string) (model.ShareVector, error)
	GetShareLog(ctx context.Context) ([]model.ShareRecord, error)

	// Anomaly tracking
	SaveAnomaly(ctx context.Context, anomaly *model.Anomaly) error
	GetAnomalies(ctx context.Context, receiptID string) ([]model.Anomaly, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// CorrectionRequest is what the name-correction oracle receives.
type CorrectionRequest struct {
	RawName string
	Context string
}

// CorrectionResult is what the name-correction oracle returns. Accepted
// is false when the oracle timed out, was unavailable, or declined to
// guess; the caller falls back to the raw name in that case.
type CorrectionResult struct {
	CorrectedName string
	Accepted      bool
}

// NameCorrector resolves garbled OCR product names. Implementations must
// honor the context deadline; the engine never blocks on a correction
// beyond its configured timeout.
type NameCorrector interface {
	Correct(ctx context.Context, req CorrectionRequest) (CorrectionResult, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ProcessingStats shows the results of a receipt processing run.
type ProcessingStats struct {
	Receipts     int
	Items        int
	Promotions   int
	Corrected    int
	Unrecognized int
	Anomalies    int
	Duration     time.Duration
}
