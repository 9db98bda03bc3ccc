package service

import (
	"context"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	metrics    MetricsRecorder
	now        Clock
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, cfg *config.Config, metrics MetricsRecorder) SettlementService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &settlementService{
		uowFactory: uowFactory,
		config:     cfg,
		metrics:    metrics,
		now:        time.Now,
	}
}

// ResolveBet settles a bet: the losers' stakes are split evenly among the
// participants who picked the winning option.
func (s *settlementService) ResolveBet(ctx context.Context, actor models.Principal, betID int64, winningOptionRef string) (result *models.SettlementResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSettlement("resolve", outcomeLabel(err), time.Since(start))
	}()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	// The row lock makes a concurrent resolve wait here and then observe
	// the resolved status
	bet, err := uow.BetRepository().GetForUpdate(ctx, betID)
	if err != nil {
		return nil, storageError("get bet", err)
	}
	if bet == nil {
		return nil, ErrBetNotFound
	}
	if bet.IsResolved() {
		return nil, ErrBetAlreadyResolved
	}

	options, err := uow.BetRepository().GetOptions(ctx, betID)
	if err != nil {
		return nil, storageError("get bet options", err)
	}
	winningOption, err := ResolveOptionReference(options, winningOptionRef)
	if err != nil {
		return nil, newValidationError("winning_option", err.Error(), ErrInvalidWinningOption)
	}

	participations, err := uow.ParticipationRepository().GetByBet(ctx, betID)
	if err != nil {
		return nil, storageError("get participations", err)
	}

	plan := PlanSettlement(participations, winningOption.ID)
	payoutsByUser := make(map[int64]int64, len(plan.Payouts))

	for _, winner := range plan.Winners {
		payout := plan.Payouts[winner.ID]
		payoutsByUser[winner.UserID] = payout
		if payout == 0 {
			continue
		}
		metadata := map[string]any{
			"participation_id":  winner.ID,
			"winning_option_id": winningOption.ID,
			"pool":              plan.Pool,
			"winner_count":      len(plan.Winners),
		}
		if err := applyBetCredit(ctx, uow, betID, winner.UserID, payout, models.TransactionTypeBetPayout, metadata); err != nil {
			return nil, storageError("credit winner", err)
		}
	}
	for _, loser := range plan.Losers {
		payoutsByUser[loser.UserID] = 0
	}

	if err := uow.ParticipationRepository().UpdateSettlement(ctx, plan.Apply()); err != nil {
		return nil, storageError("update participations", err)
	}

	resolvedAt := s.now()
	bet.Status = models.BetStatusResolved
	bet.WinningOptionID = &winningOption.ID
	bet.ResolvedAt = &resolvedAt
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, storageError("update bet", err)
	}

	uow.EventBus().Publish(events.BetResolvedEvent{
		BetID:             bet.ID,
		ActorID:           actor.UserID,
		Title:             bet.Title,
		WinningOptionID:   winningOption.ID,
		WinningOptionText: winningOption.Text,
		Pool:              plan.Pool,
		Payouts:           payoutsByUser,
		ParticipantIDs:    models.ParticipantUserIDs(participations),
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit settlement", err)
	}

	s.metrics.AddCreditsMoved(string(models.TransactionTypeBetPayout), plan.TotalPaid())
	log.WithFields(log.Fields{
		"betID":         bet.ID,
		"winningOption": winningOption.ID,
		"winners":       len(plan.Winners),
		"losers":        len(plan.Losers),
		"pool":          plan.Pool,
	}).Info("Bet resolved")

	return &models.SettlementResult{
		Bet:           bet,
		WinningOption: winningOption,
		Winners:       plan.Winners,
		Losers:        plan.Losers,
		Pool:          plan.Pool,
		Payouts:       payoutsByUser,
	}, nil
}

// RevertBet undoes a settlement and returns the bet to active
func (s *settlementService) RevertBet(ctx context.Context, actor models.Principal, betID int64) (reverted *models.Bet, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSettlement("revert", outcomeLabel(err), time.Since(start))
	}()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetForUpdate(ctx, betID)
	if err != nil {
		return nil, storageError("get bet", err)
	}
	if bet == nil {
		return nil, ErrBetNotFound
	}
	if !bet.IsResolved() {
		return nil, ErrInvalidStateTransition
	}

	participations, err := uow.ParticipationRepository().GetByBet(ctx, betID)
	if err != nil {
		return nil, storageError("get participations", err)
	}

	moved, err := s.reverseSettlement(ctx, uow, bet, participations, "revert")
	if err != nil {
		return nil, err
	}

	if err := uow.ParticipationRepository().ResetByBet(ctx, betID); err != nil {
		return nil, storageError("reset participations", err)
	}

	bet.Status = models.BetStatusActive
	bet.WinningOptionID = nil
	bet.ResolvedAt = nil
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, storageError("update bet", err)
	}

	uow.EventBus().Publish(events.BetRevertedEvent{
		BetID:          bet.ID,
		ActorID:        actor.UserID,
		Title:          bet.Title,
		ParticipantIDs: models.ParticipantUserIDs(participations),
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit revert", err)
	}

	s.metrics.AddCreditsMoved(string(models.TransactionTypeBetReversal), moved)
	log.WithFields(log.Fields{
		"betID": bet.ID,
		"mode":  s.config.ReversalMode,
	}).Info("Bet settlement reverted")

	return bet, nil
}

// DeleteBet removes a bet with its participations, reversing the settlement
// first when the bet was resolved
func (s *settlementService) DeleteBet(ctx context.Context, actor models.Principal, betID int64) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSettlement("delete", outcomeLabel(err), time.Since(start))
	}()

	if err := requireAdmin(actor); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return storageError("begin transaction", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetForUpdate(ctx, betID)
	if err != nil {
		return storageError("get bet", err)
	}
	if bet == nil {
		return ErrBetNotFound
	}

	participations, err := uow.ParticipationRepository().GetByBet(ctx, betID)
	if err != nil {
		return storageError("get participations", err)
	}

	var moved int64
	if bet.IsResolved() {
		if moved, err = s.reverseSettlement(ctx, uow, bet, participations, "delete"); err != nil {
			return err
		}
	}

	if err := uow.ParticipationRepository().DeleteByBet(ctx, betID); err != nil {
		return storageError("delete participations", err)
	}
	if err := uow.BetRepository().Delete(ctx, betID); err != nil {
		return storageError("delete bet", err)
	}

	uow.EventBus().Publish(events.BetDeletedEvent{
		BetID:          bet.ID,
		ActorID:        actor.UserID,
		Title:          bet.Title,
		WasResolved:    bet.IsResolved(),
		ParticipantIDs: models.ParticipantUserIDs(participations),
	})

	if err := uow.Commit(); err != nil {
		return storageError("commit delete", err)
	}

	if moved > 0 {
		s.metrics.AddCreditsMoved(string(models.TransactionTypeBetReversal), moved)
	}
	log.WithFields(log.Fields{
		"betID":       bet.ID,
		"wasResolved": bet.IsResolved(),
	}).Info("Bet deleted")

	return nil
}

// reverseSettlement applies the configured reversal to every participant and
// returns the absolute number of credits moved
func (s *settlementService) reverseSettlement(ctx context.Context, uow UnitOfWork, bet *models.Bet, participations []*models.Participation, reason string) (int64, error) {
	var moved int64
	for _, adj := range PlanReversal(bet, participations, s.config.ReversalMode) {
		metadata := map[string]any{
			"participation_id": adj.ParticipationID,
			"reason":           reason,
			"mode":             string(s.config.ReversalMode),
		}
		if err := applyBetCredit(ctx, uow, bet.ID, adj.UserID, adj.Amount, models.TransactionTypeBetReversal, metadata); err != nil {
			return 0, storageError("reverse credits", err)
		}
		if adj.Amount < 0 {
			moved -= adj.Amount
		} else {
			moved += adj.Amount
		}
	}
	return moved, nil
}
