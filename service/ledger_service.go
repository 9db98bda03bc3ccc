package service

import (
	"context"
	"fmt"
	"strings"

	"betpool/events"
	"betpool/models"
)

const defaultHistoryLimit = 50

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	metrics    MetricsRecorder
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, metrics MetricsRecorder) LedgerService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ledgerService{
		uowFactory: uowFactory,
		metrics:    metrics,
	}
}

// RegisterUser creates an account with zero credits
func (s *ledgerService) RegisterUser(ctx context.Context, actor models.Principal, displayName string, email *string, role models.Role) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	verr := &ValidationError{}
	if displayName == "" {
		verr.Add("display_name", "must not be empty")
	}
	if !role.Valid() {
		verr.Add("role", fmt.Sprintf("unknown role %q", role))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, displayName, email, role)
	if err != nil {
		return nil, storageError("create user", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:      user.ID,
		ActorID:     actor.UserID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit user creation", err)
	}
	return user, nil
}

// GetUser returns a user by id
func (s *ledgerService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, storageError("get user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns every account
func (s *ledgerService) ListUsers(ctx context.Context, actor models.Principal) ([]*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

// SetCredits overwrites a user's balance and records the adjustment
func (s *ledgerService) SetCredits(ctx context.Context, actor models.Principal, userID int64, credits int64) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if credits < 0 {
		return nil, newValidationError("credits", "must not be negative", nil)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	change, err := uow.UserRepository().SetCredits(ctx, userID, credits)
	if err != nil {
		return nil, storageError("set credits", err)
	}
	if change.Delta() != 0 {
		metadata := map[string]any{"admin_id": actor.UserID}
		if err := recordCreditChange(ctx, uow, change, models.TransactionTypeCreditAdjustment, metadata); err != nil {
			return nil, storageError("record credit adjustment", err)
		}
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, storageError("get user", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit credit adjustment", err)
	}
	return user, nil
}

// ResetCredits sets every regular user's credits to zero and returns how
// many balances changed
func (s *ledgerService) ResetCredits(ctx context.Context, actor models.Principal) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	changes, err := uow.UserRepository().ResetCreditsForRole(ctx, models.RoleUser)
	if err != nil {
		return 0, storageError("reset credits", err)
	}

	var moved int64
	metadata := map[string]any{"admin_id": actor.UserID}
	for _, change := range changes {
		if err := recordCreditChange(ctx, uow, change, models.TransactionTypeCreditReset, metadata); err != nil {
			return 0, storageError("record credit reset", err)
		}
		if d := change.Delta(); d < 0 {
			moved -= d
		} else {
			moved += d
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, storageError("commit credit reset", err)
	}

	s.metrics.AddCreditsMoved(string(models.TransactionTypeCreditReset), moved)
	return len(changes), nil
}

// GetBalanceHistory returns recent credit movements of a user. Users may read
// their own history; admins may read anyone's.
func (s *ledgerService) GetBalanceHistory(ctx context.Context, actor models.Principal, userID int64, limit int) ([]*models.BalanceHistory, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, storageError("get balance history", err)
	}
	return history, nil
}
