package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/storage"
)

// ReminderPublisher publishes bill reminders. *amqp.Client satisfies it.
type ReminderPublisher interface {
	PublishBillReminder(ctx context.Context, msg *amqp.BillReminderMessage) error
}

// ReminderWorker periodically scans every user's bills and publishes a
// reminder for each active bill that is due soon or overdue and not yet
// paid this period.
type ReminderWorker struct {
	store         storage.Store
	publisher     ReminderPublisher
	dueSoonWindow time.Duration
	now           func() time.Time
}

func NewReminderWorker(store storage.Store, publisher ReminderPublisher, dueSoonWindow time.Duration) *ReminderWorker {
	if dueSoonWindow <= 0 {
		dueSoonWindow = ledger.DefaultDueSoonWindow
	}
	return &ReminderWorker{
		store:         store,
		publisher:     publisher,
		dueSoonWindow: dueSoonWindow,
		now:           time.Now,
	}
}

// Run scans on the given interval until ctx is done. A scan happens
// immediately on start.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := w.Scan(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial bill scan failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				slog.ErrorContext(ctx, "Bill scan failed", "error", err)
			}
		}
	}
}

// Scan walks all bill owners once and publishes due reminders.
func (w *ReminderWorker) Scan(ctx context.Context) error {
	userIDs, err := w.store.BillOwnerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list bill owners: %w", err)
	}

	today := w.now()
	period := core.PeriodOf(today)
	published := 0

	for _, userID := range userIDs {
		bills, err := w.store.ListBills(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list bills", log.FieldUserID, userID, "error", err)
			continue
		}
		paid, err := w.store.PaidBillIDs(ctx, userID, period)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load paid state", log.FieldUserID, userID, "error", err)
			continue
		}

		for _, bill := range bills {
			if !bill.Active {
				continue
			}
			status := ledger.StatusFor(bill, paid[bill.ID], today, w.dueSoonWindow)
			if status.Paid || (!status.Overdue && !status.DueSoon) {
				continue
			}

			msg := amqp.NewBillReminderMessage(userID, bill.ID, bill.Name, status.DueDate, status.Overdue)
			if err := w.publisher.PublishBillReminder(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to publish bill reminder",
					log.FieldBillID, bill.ID, "error", err)
				continue
			}
			published++
		}
	}

	slog.InfoContext(ctx, "Bill scan completed",
		"users", len(userIDs),
		"reminders", published)
	return nil
}
