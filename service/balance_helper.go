package service

import (
	"context"
	"fmt"

	"betpool/events"
	"betpool/models"
)

// RecordBalanceChange records a balance history entry and queues a balance
// change event. Every credit movement in the system goes through here.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		ChangeAmount:    history.ChangeAmount,
		TransactionType: history.TransactionType,
	})

	return nil
}

// applyBetCredit moves delta credits for a user on behalf of a bet and
// records the movement.
func applyBetCredit(ctx context.Context, uow UnitOfWork, betID, userID, delta int64, txType models.TransactionType, metadata map[string]any) error {
	change, err := uow.UserRepository().AdjustCredits(ctx, userID, delta)
	if err != nil {
		return err
	}

	relatedType := models.RelatedTypeBet
	return RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       change.BalanceBefore,
		BalanceAfter:        change.BalanceAfter,
		ChangeAmount:        delta,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           &betID,
		RelatedType:         &relatedType,
	})
}

// recordCreditChange records an already applied administrative change
func recordCreditChange(ctx context.Context, uow UnitOfWork, change *models.CreditChange, txType models.TransactionType, metadata map[string]any) error {
	return RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:              change.UserID,
		BalanceBefore:       change.BalanceBefore,
		BalanceAfter:        change.BalanceAfter,
		ChangeAmount:        change.Delta(),
		TransactionType:     txType,
		TransactionMetadata: metadata,
	})
}

func requireAdmin(actor models.Principal) error {
	if actor.UserID == 0 {
		return ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func requireAuthenticated(actor models.Principal) error {
	if actor.UserID == 0 {
		return ErrUnauthorized
	}
	return nil
}
