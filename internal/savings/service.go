// Package savings manages savings goals and deposits towards them.
package savings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"college-budgeting-backend/internal/model"
)

var (
	ErrInvalidInput  = errors.New("invalid savings goal")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// GoalStore persists savings goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, g *model.SavingsGoal) error
	ListGoals(ctx context.Context, userEmail string) ([]model.SavingsGoal, error)
	Deposit(ctx context.Context, id int64, userEmail string, amount decimal.Decimal) (*model.SavingsGoal, error)
}

// Service implements the savings goal operations.
type Service struct {
	store  GoalStore
	logger *zap.Logger
}

// NewService returns a Service backed by store.
func NewService(store GoalStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Create opens a new active goal with nothing collected yet.
func (s *Service) Create(ctx context.Context, userEmail, purpose string, target decimal.Decimal) (*model.SavingsGoal, error) {
	userEmail = strings.TrimSpace(userEmail)
	purpose = strings.TrimSpace(purpose)
	if userEmail == "" || purpose == "" {
		return nil, fmt.Errorf("%w: user_email and purpose are required", ErrInvalidInput)
	}
	if !target.IsPositive() {
		return nil, fmt.Errorf("%w: target_amount %s", ErrInvalidAmount, target)
	}

	g := &model.SavingsGoal{
		UserEmail: userEmail,
		Purpose:   purpose,
		Target:    target,
		Collected: decimal.Zero,
		Status:    model.GoalActive,
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the user's goals.
func (s *Service) List(ctx context.Context, userEmail string) ([]model.SavingsGoal, error) {
	userEmail = strings.TrimSpace(userEmail)
	if userEmail == "" {
		return nil, fmt.Errorf("%w: user_email is required", ErrInvalidInput)
	}
	return s.store.ListGoals(ctx, userEmail)
}

// Deposit adds amount to goal id. The goal turns achieved once the collected
// amount reaches its target.
func (s *Service) Deposit(ctx context.Context, id int64, userEmail string, amount decimal.Decimal) (*model.SavingsGoal, error) {
	userEmail = strings.TrimSpace(userEmail)
	if userEmail == "" {
		return nil, fmt.Errorf("%w: user_email is required", ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount %s", ErrInvalidAmount, amount)
	}
	g, err := s.store.Deposit(ctx, id, userEmail, amount)
	if err != nil {
		return nil, err
	}
	if g.Status == model.GoalAchieved {
		s.logger.Info("savings goal achieved", zap.Int64("goal_id", g.ID))
	}
	return g, nil
}
