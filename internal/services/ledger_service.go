package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

// LedgerService orchestrates account and transaction operations across
// the store and AMQP.
type LedgerService struct {
	store      storage.Store
	amqpClient *amqp.Client
}

func NewLedgerService(store storage.Store, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, &a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, userID, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

// UpdateAccount changes an account's descriptive fields. Balances are
// moved only by posting transactions, never by edits here.
func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// CreateTransaction validates, posts the balance delta and saves the
// transaction atomically, then publishes a ledger event.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Category == "" {
		t.Category = core.Uncategorized
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, &t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publishLedgerEvent(ctx, t.UserID, t.ID, amqp.KindPosted)
	return t, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// UpdateTransaction reverses the stored posting and applies the new one
// in a single database transaction, so balances stay consistent even
// when the account, amount or type changes.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Category == "" {
		t.Category = core.Uncategorized
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publishLedgerEvent(ctx, t.UserID, t.ID, amqp.KindPosted)
	return t, nil
}

// DeleteTransaction removes the transaction and reverses its balance
// effect atomically.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishLedgerEvent(ctx, userID, id, amqp.KindReversed)
	return nil
}

func (s *LedgerService) publishLedgerEvent(ctx context.Context, userID, transactionID int64, kind string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event")
		return
	}

	msg := amqp.NewLedgerEventMessage(userID, transactionID, kind)
	if err := s.amqpClient.PublishLedgerEvent(ctx, msg); err != nil {
		// The transaction is already committed; export catches up via
		// the pending sweep.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldTransactionID, transactionID,
			"kind", kind,
			"error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
