// Package engine orchestrates the receipt processing pipeline: parse,
// fold promotions, correct names, assign default shares, reconcile,
// persist.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/bonsplit/bonsplit/internal/common"
	"github.com/bonsplit/bonsplit/internal/ledger"
	"github.com/bonsplit/bonsplit/internal/model"
	"github.com/bonsplit/bonsplit/internal/parser"
	"github.com/bonsplit/bonsplit/internal/service"
	"github.com/bonsplit/bonsplit/internal/split"
)

// ProcessingEngine runs extracted receipts through the full pipeline.
type ProcessingEngine struct {
	storage   service.Storage
	corrector service.NameCorrector
	parser    *parser.Parser
	assigner  *split.Assigner
	ledger    *ledger.Ledger
	progress  bool
}

// Config holds configuration options for the processing engine.
type Config struct {
	DriftTolerance float64
	ShowProgress   bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DriftTolerance: ledger.DefaultDriftTolerance,
		ShowProgress:   true,
	}
}

// New creates a new processing engine with the given dependencies.
func New(storage service.Storage, corrector service.NameCorrector, assigner *split.Assigner, config Config) *ProcessingEngine {
	return &ProcessingEngine{
		storage:   storage,
		corrector: corrector,
		parser:    parser.NewParser(),
		assigner:  assigner,
		ledger:    ledger.New(config.DriftTolerance),
		progress:  config.ShowProgress,
	}
}

// ProcessBatch runs every input through the pipeline. A failing receipt
// is logged and skipped; the rest of the batch still processes.
func (e *ProcessingEngine) ProcessBatch(ctx context.Context, inputs []ReceiptInput) (service.ProcessingStats, error) {
	start := time.Now()
	stats := service.ProcessingStats{}

	var bar *progressbar.ProgressBar
	if e.progress && len(inputs) > 1 {
		bar = progressbar.Default(int64(len(inputs)), "processing receipts")
	}

	var firstErr error
	for i := range inputs {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		receiptStats, err := e.ProcessReceipt(ctx, &inputs[i])
		if err != nil {
			slog.Error("failed to process receipt",
				"source", inputs[i].SourcePath,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			stats.Receipts++
			stats.Items += receiptStats.Items
			stats.Promotions += receiptStats.Promotions
			stats.Corrected += receiptStats.Corrected
			stats.Unrecognized += receiptStats.Unrecognized
			stats.Anomalies += receiptStats.Anomalies
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	stats.Duration = time.Since(start)
	if stats.Receipts == 0 && firstErr != nil {
		return stats, firstErr
	}
	return stats, nil
}

// ProcessReceipt runs one extracted receipt through the pipeline and
// persists the result atomically.
func (e *ProcessingEngine) ProcessReceipt(ctx context.Context, input *ReceiptInput) (service.ProcessingStats, error) {
	stats := service.ProcessingStats{}

	receiptID := input.ID
	if receiptID == "" {
		receiptID = uuid.NewString()
	}

	items, err := e.parser.Parse(receiptID, input.Tokens)
	if err != nil {
		return stats, fmt.Errorf("failed to parse receipt %s: %w", input.SourcePath, err)
	}
	if len(items) == 0 {
		return stats, fmt.Errorf("receipt %s: %w", input.SourcePath, common.ErrNoItems)
	}

	anomalies := parser.ResolvePromotions(items)
	for i := range items {
		if items[i].IsPromotional {
			stats.Promotions++
		}
	}
	for i := range anomalies {
		anomalies[i].ReceiptID = receiptID
	}

	e.correctNames(ctx, items, &stats)
	e.assigner.AssignDefaults(ctx, items)

	receipt := e.buildReceipt(receiptID, input, items)

	warning, driftErr := e.ledger.CheckDrift(receipt)
	if warning != nil {
		anomalies = append(anomalies, ledger.DriftAnomaly(warning))
		slog.Warn("receipt total drift",
			"receipt", receiptID,
			"printed_total", warning.PrintedTotal,
			"item_sum", warning.ItemSum,
			"drift", warning.Drift,
			"blocks_export", driftErr != nil)
	}

	if err := e.persist(ctx, receipt, anomalies); err != nil {
		return stats, err
	}

	stats.Receipts = 1
	stats.Items = len(items)
	stats.Anomalies = len(anomalies)

	slog.Info("processed receipt",
		"receipt", receiptID,
		"shop", receipt.Shop,
		"items", stats.Items,
		"promotions", stats.Promotions,
		"anomalies", stats.Anomalies)
	return stats, nil
}

// correctNames asks the oracle for every garbled billable name. The
// corrector guarantees a bounded answer: a timeout or refusal falls
// back to the raw extraction, so the pipeline never stalls here.
func (e *ProcessingEngine) correctNames(ctx context.Context, items []model.LineItem, stats *service.ProcessingStats) {
	for i := range items {
		if items[i].IsPromotional {
			continue
		}

		result, err := e.corrector.Correct(ctx, service.CorrectionRequest{
			RawName: items[i].RawName,
		})
		if err != nil {
			slog.Warn("name correction failed, keeping raw name",
				"raw_name", items[i].RawName,
				"error", err)
			continue
		}

		items[i].CorrectedName = result.CorrectedName
		switch {
		case result.CorrectedName == model.Unrecognized:
			stats.Unrecognized++
		case result.Accepted && result.CorrectedName != items[i].RawName:
			stats.Corrected++
		}
	}
}

func (e *ProcessingEngine) buildReceipt(receiptID string, input *ReceiptInput, items []model.LineItem) *model.Receipt {
	receipt := &model.Receipt{
		ID:           receiptID,
		SourcePath:   input.SourcePath,
		Shop:         input.Shop,
		Date:         input.Date.Time(),
		PrintedTotal: input.PrintedTotal,
		Items:        items,
	}

	// Fill gaps from the raw text when the extraction did not already
	// provide metadata.
	if input.Text != "" && (receipt.Shop == "" || receipt.Date.IsZero() || receipt.PrintedTotal == 0) {
		meta := parser.ExtractMetadata(input.Text)
		if receipt.Shop == "" {
			receipt.Shop = meta.Shop
		}
		if receipt.Date.IsZero() {
			receipt.Date = meta.Date
		}
		if receipt.PrintedTotal == 0 && meta.TotalFound {
			receipt.PrintedTotal = meta.PrintedTotal
		}
	}
	return receipt
}

// persist writes the receipt and its anomalies in one transaction.
func (e *ProcessingEngine) persist(ctx context.Context, receipt *model.Receipt, anomalies []model.Anomaly) error {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.SaveReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", receipt.ID, err)
	}
	for i := range anomalies {
		if err := tx.SaveAnomaly(ctx, &anomalies[i]); err != nil {
			return fmt.Errorf("failed to save anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipt %s: %w", receipt.ID, err)
	}
	return nil
}
