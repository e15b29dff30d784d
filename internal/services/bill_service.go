package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/storage"
)

// BillService manages recurring bills and their per-period paid state.
type BillService struct {
	store         storage.Store
	dueSoonWindow time.Duration
	now           func() time.Time
}

func NewBillService(store storage.Store) *BillService {
	return &BillService{
		store:         store,
		dueSoonWindow: ledger.DefaultDueSoonWindow,
		now:           time.Now,
	}
}

func (s *BillService) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if b.Category == "" {
		b.Category = core.Uncategorized
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.CreateBill(ctx, &b); err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	return b, nil
}

func (s *BillService) GetBill(ctx context.Context, userID, id int64) (core.Bill, error) {
	return s.store.GetBill(ctx, userID, id)
}

func (s *BillService) UpdateBill(ctx context.Context, b core.Bill) error {
	if b.Category == "" {
		b.Category = core.Uncategorized
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateBill(ctx, b); err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return nil
}

func (s *BillService) DeleteBill(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBill(ctx, userID, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return nil
}

// ListBills returns every bill with its status for the current period:
// due date clipped to the month, paid flag, overdue and due-soon
// derivations.
func (s *BillService) ListBills(ctx context.Context, userID int64) ([]ledger.BillStatus, error) {
	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	today := s.now()
	paid, err := s.store.PaidBillIDs(ctx, userID, core.PeriodOf(today))
	if err != nil {
		return nil, fmt.Errorf("load paid state: %w", err)
	}

	statuses := make([]ledger.BillStatus, 0, len(bills))
	for _, b := range bills {
		statuses = append(statuses, ledger.StatusFor(b, paid[b.ID], today, s.dueSoonWindow))
	}
	return statuses, nil
}

// ToggleResult reports the outcome of a paid-state toggle.
type ToggleResult struct {
	Paid    bool
	Message string
}

// TogglePaid flips the bill's paid state for the current period. Marking
// paid records a payment transaction against the bill's account; marking
// unpaid deletes that transaction and restores the balance.
func (s *BillService) TogglePaid(ctx context.Context, userID, billID int64) (ToggleResult, error) {
	now := s.now()
	period := core.PeriodOf(now)

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("load bill: %w", err)
	}

	paid, err := s.store.PaidBillIDs(ctx, userID, period)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("load paid state: %w", err)
	}

	if paid[billID] {
		if err := s.store.MarkBillUnpaid(ctx, userID, billID, period); err != nil {
			return ToggleResult{}, fmt.Errorf("mark bill unpaid: %w", err)
		}
		slog.InfoContext(ctx, "Bill marked unpaid",
			log.FieldBillID, billID,
			log.FieldPeriod, period.String())
		return ToggleResult{
			Paid:    false,
			Message: fmt.Sprintf("Bill '%s' marked as unpaid for %s", bill.Name, period),
		}, nil
	}

	payment, err := s.store.MarkBillPaid(ctx, userID, billID, period, now)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("mark bill paid: %w", err)
	}
	slog.InfoContext(ctx, "Bill marked paid",
		log.FieldBillID, billID,
		log.FieldPeriod, period.String(),
		log.FieldTransactionID, payment.ID)
	return ToggleResult{
		Paid:    true,
		Message: fmt.Sprintf("Bill '%s' marked as paid for %s", bill.Name, period),
	}, nil
}

// ResetAll clears every paid flag for the current period. Payment
// transactions recorded this period stay in the ledger. Safe to call
// repeatedly.
func (s *BillService) ResetAll(ctx context.Context, userID int64) (int64, error) {
	period := core.PeriodOf(s.now())
	n, err := s.store.ResetBillPayments(ctx, userID, period)
	if err != nil {
		return 0, fmt.Errorf("reset bill payments: %w", err)
	}
	slog.InfoContext(ctx, "Bill paid state reset",
		log.FieldPeriod, period.String(),
		"cleared", n)
	return n, nil
}
