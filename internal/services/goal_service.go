package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

// GoalService manages savings goals. Fund movements go through a guarded
// relative update so a withdraw can never take a goal negative.
type GoalService struct {
	store storage.Store
}

func NewGoalService(store storage.Store) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if err := s.store.CreateGoal(ctx, &g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error) {
	return s.store.GetGoal(ctx, userID, id)
}

func (s *GoalService) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	return s.store.ListGoals(ctx, userID)
}

func (s *GoalService) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// AddFunds increases the goal's saved amount and returns the updated
// goal. Amounts must be positive.
func (s *GoalService) AddFunds(ctx context.Context, userID, id int64, amount core.Money) (core.SavingsGoal, error) {
	if amount.Cents <= 0 {
		return core.SavingsGoal{}, core.ErrInvalidAmount
	}

	g, err := s.store.AdjustGoalAmount(ctx, userID, id, amount.Cents)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add funds: %w", err)
	}

	slog.InfoContext(ctx, "Funds added to goal",
		log.FieldGoalID, id,
		log.FieldAmountCents, amount.Cents,
		"current_cents", g.CurrentAmount.Cents)
	return g, nil
}

// WithdrawFunds decreases the goal's saved amount. Withdrawing more than
// the current amount fails with core.ErrInsufficientFunds and leaves the
// goal unchanged.
func (s *GoalService) WithdrawFunds(ctx context.Context, userID, id int64, amount core.Money) (core.SavingsGoal, error) {
	if amount.Cents <= 0 {
		return core.SavingsGoal{}, core.ErrInvalidAmount
	}

	g, err := s.store.AdjustGoalAmount(ctx, userID, id, -amount.Cents)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("withdraw funds: %w", err)
	}

	slog.InfoContext(ctx, "Funds withdrawn from goal",
		log.FieldGoalID, id,
		log.FieldAmountCents, amount.Cents,
		"current_cents", g.CurrentAmount.Cents)
	return g, nil
}
