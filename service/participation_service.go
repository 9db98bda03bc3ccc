package service

import (
	"context"
	"fmt"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"
)

type participationService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	metrics    MetricsRecorder
	now        Clock
}

// NewParticipationService creates a new participation service
func NewParticipationService(uowFactory UnitOfWorkFactory, cfg *config.Config, metrics MetricsRecorder) ParticipationService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &participationService{
		uowFactory: uowFactory,
		config:     cfg,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Participate joins the actor to a bet on the referenced option. An open bet
// is promoted to active once it reaches the configured participant count.
func (s *participationService) Participate(ctx context.Context, actor models.Principal, betID int64, optionRef string, stake int64) (participation *models.Participation, err error) {
	defer func() {
		s.metrics.IncParticipation(outcomeLabel(err))
	}()

	if err := requireAuthenticated(actor); err != nil {
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
	if bet.IsResolved() {
		return nil, ErrBetAlreadyResolved
	}
	if !bet.Status.AcceptsParticipants() {
		return nil, ErrBetNotAccepting
	}
	if bet.DeadlinePassed(s.now()) {
		return nil, ErrDeadlinePassed
	}

	if stake == 0 {
		stake = bet.Amount
	}
	if stake != bet.Amount {
		return nil, newValidationError("stake", fmt.Sprintf("must equal the bet amount %d", bet.Amount), nil)
	}

	options, err := uow.BetRepository().GetOptions(ctx, betID)
	if err != nil {
		return nil, storageError("get bet options", err)
	}
	option, err := ResolveOptionReference(options, optionRef)
	if err != nil {
		return nil, newValidationError("option", err.Error(), ErrInvalidOption)
	}

	existing, err := uow.ParticipationRepository().GetByBetAndUser(ctx, betID, actor.UserID)
	if err != nil {
		return nil, storageError("check participation", err)
	}
	if existing != nil {
		return nil, ErrAlreadyParticipated
	}

	participation = &models.Participation{
		BetID:    betID,
		UserID:   actor.UserID,
		OptionID: option.ID,
		Stake:    stake,
		Status:   models.ParticipationStatusAccepted,
	}
	// The unique (bet, user) constraint still guards against a racing insert
	if err := uow.ParticipationRepository().Create(ctx, participation); err != nil {
		return nil, storageError("create participation", err)
	}

	participations, err := uow.ParticipationRepository().GetByBet(ctx, betID)
	if err != nil {
		return nil, storageError("get participations", err)
	}

	if bet.Status == models.BetStatusOpen && len(participations) >= s.config.MinParticipantsForActive {
		bet.Status = models.BetStatusActive
		if err := uow.BetRepository().Update(ctx, bet); err != nil {
			return nil, storageError("promote bet", err)
		}
		uow.EventBus().Publish(events.BetStatusChangedEvent{
			BetID:          bet.ID,
			ActorID:        actor.UserID,
			Title:          bet.Title,
			OldStatus:      models.BetStatusOpen,
			NewStatus:      models.BetStatusActive,
			ParticipantIDs: models.ParticipantUserIDs(participations),
		})
	}

	uow.EventBus().Publish(events.ParticipantJoinedEvent{
		BetID:          bet.ID,
		UserID:         actor.UserID,
		Title:          bet.Title,
		OptionID:       option.ID,
		OptionText:     option.Text,
		ParticipantIDs: models.ParticipantUserIDs(participations),
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit participation", err)
	}
	return participation, nil
}

// RemoveParticipation deletes a participation from an unresolved bet
func (s *participationService) RemoveParticipation(ctx context.Context, actor models.Principal, betID, participationID int64) error {
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
	if bet.IsResolved() {
		return ErrBetAlreadyResolved
	}

	participation, err := uow.ParticipationRepository().GetByID(ctx, participationID)
	if err != nil {
		return storageError("get participation", err)
	}
	if participation == nil || participation.BetID != betID {
		return ErrParticipationNotFound
	}

	if err := uow.ParticipationRepository().Delete(ctx, participationID); err != nil {
		return storageError("delete participation", err)
	}

	if err := uow.Commit(); err != nil {
		return storageError("commit participation removal", err)
	}
	return nil
}

// ChangeOption moves a user's participation to another option of the same bet
func (s *participationService) ChangeOption(ctx context.Context, actor models.Principal, betID, userID int64, optionRef string) (*models.Participation, error) {
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
	if bet.IsResolved() {
		return nil, ErrBetAlreadyResolved
	}

	options, err := uow.BetRepository().GetOptions(ctx, betID)
	if err != nil {
		return nil, storageError("get bet options", err)
	}
	option, err := ResolveOptionReference(options, optionRef)
	if err != nil {
		return nil, newValidationError("option", err.Error(), ErrInvalidOption)
	}

	participation, err := uow.ParticipationRepository().GetByBetAndUser(ctx, betID, userID)
	if err != nil {
		return nil, storageError("get participation", err)
	}
	if participation == nil {
		return nil, ErrParticipationNotFound
	}

	if participation.OptionID != option.ID {
		if err := uow.ParticipationRepository().UpdateOption(ctx, participation.ID, option.ID); err != nil {
			return nil, storageError("update participation option", err)
		}
		participation.OptionID = option.ID
	}

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit option change", err)
	}
	return participation, nil
}
