package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
	"budget/internal/storage"
)

// ExportWorker mirrors posted transactions from the store to an external
// ledger copy. AMQP events drive the fast path; the pending sweep is the
// backup in case messages are lost.
type ExportWorker struct {
	store     storage.Store
	writer    export.EntryWriter
	remover   export.EntryRemover
	batchSize int
}

func NewExportWorker(store storage.Store, writer export.EntryWriter, remover export.EntryRemover, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		writer:    writer,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleLedgerEvent processes a single posted/reversed event from AMQP.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		log.FieldEventID, msg.EventID,
		log.FieldTransactionID, msg.TransactionID,
		"kind", msg.Kind)

	switch msg.Kind {
	case amqp.KindReversed:
		return w.handleReversed(ctx, msg.TransactionID)
	case amqp.KindPosted:
		tx, err := w.store.GetTransaction(ctx, msg.UserID, msg.TransactionID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got here. Nothing to export.
			slog.WarnContext(ctx, "Transaction vanished before export",
				log.FieldTransactionID, msg.TransactionID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction from storage: %w", err)
		}
		return w.exportTransaction(ctx, tx)
	default:
		slog.WarnContext(ctx, "Unknown ledger event kind, dropping",
			"kind", msg.Kind,
			log.FieldEventID, msg.EventID)
		return nil
	}
}

func (w *ExportWorker) handleReversed(ctx context.Context, transactionID int64) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No entry remover configured, skipping external removal",
			log.FieldTransactionID, transactionID)
		return nil
	}

	if err := w.remover.Remove(ctx, transactionID); err != nil {
		return fmt.Errorf("remove exported entry: %w", err)
	}

	slog.InfoContext(ctx, "Removed exported entry", log.FieldTransactionID, transactionID)
	return nil
}

// ProcessPending exports transactions still marked pending. This is a
// backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingExportTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				log.FieldTransactionID, tx.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup, using a
// larger batch to recover from downtime.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.PendingExportTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, tx := range pending {
		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				log.FieldTransactionID, tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, tx core.Transaction) error {
	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkTransactionExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				log.FieldTransactionID, tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to external ledger: %w", err)
	}

	if err := w.store.MarkTransactionExported(ctx, tx.ID); err != nil {
		// The export itself worked; the next sweep will retry the mark.
		slog.ErrorContext(ctx, "Failed to mark as exported",
			log.FieldTransactionID, tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		log.FieldTransactionID, tx.ID,
		log.FieldExportRef, ref,
		"description", tx.Description,
		log.FieldAmountCents, tx.Amount.Cents)

	return nil
}
