package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"
)

const (
	maxTitleLength      = 200
	maxOptionTextLength = 100
)

type lifecycleService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        Clock
}

// NewLifecycleService creates a new bet lifecycle service
func NewLifecycleService(uowFactory UnitOfWorkFactory, cfg *config.Config) LifecycleService {
	return &lifecycleService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// CreateBet opens a new bet with its options
func (s *lifecycleService) CreateBet(ctx context.Context, actor models.Principal, params CreateBetParams) (*models.BetDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(params.Title)
	verr := &ValidationError{}
	validateTitle(verr, title)
	validateAmount(verr, params.Amount)
	optionTexts := validateOptions(verr, params.Options)
	if params.Deadline != nil && !params.Deadline.After(s.now()) {
		verr.Add("deadline", "must be in the future")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	creatorID := actor.UserID
	bet := &models.Bet{
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Amount:      params.Amount,
		Status:      models.BetStatusOpen,
		Deadline:    params.Deadline,
		CreatedBy:   &creatorID,
	}
	options := buildOptions(optionTexts)

	if err := uow.BetRepository().CreateWithOptions(ctx, bet, options); err != nil {
		return nil, storageError("create bet", err)
	}

	uow.EventBus().Publish(events.BetCreatedEvent{
		BetID:   bet.ID,
		ActorID: actor.UserID,
		Title:   bet.Title,
		Amount:  bet.Amount,
		Options: optionTexts,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit bet creation", err)
	}

	return &models.BetDetail{
		Bet:            bet,
		Options:        options,
		Participations: []*models.Participation{},
	}, nil
}

// EditBet changes descriptive fields of an unresolved bet
func (s *lifecycleService) EditBet(ctx context.Context, actor models.Principal, betID int64, params EditBetParams) (*models.BetDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	var title string
	if params.Title != nil {
		title = strings.TrimSpace(*params.Title)
		validateTitle(verr, title)
	}
	if params.Amount != nil {
		validateAmount(verr, *params.Amount)
	}
	var optionTexts []string
	if params.Options != nil {
		optionTexts = validateOptions(verr, params.Options)
	}
	if params.Deadline != nil && !params.Deadline.After(s.now()) {
		verr.Add("deadline", "must be in the future")
	}
	if err := verr.OrNil(); err != nil {
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
	switch bet.Status {
	case models.BetStatusResolved:
		return nil, ErrBetAlreadyResolved
	case models.BetStatusInProgress:
		return nil, fmt.Errorf("bet is in progress and can no longer be edited: %w", ErrInvalidStateTransition)
	}

	count, err := uow.ParticipationRepository().CountByBet(ctx, betID)
	if err != nil {
		return nil, storageError("count participations", err)
	}

	if params.Amount != nil && *params.Amount != bet.Amount && count > 0 {
		return nil, fmt.Errorf("stake cannot change once users have joined: %w", ErrInvalidStateTransition)
	}
	if params.Options != nil && (bet.Status != models.BetStatusOpen || count > 0) {
		return nil, fmt.Errorf("options can only be replaced on an open bet without participants: %w", ErrInvalidStateTransition)
	}

	if params.Title != nil {
		bet.Title = title
	}
	if params.Description != nil {
		bet.Description = strings.TrimSpace(*params.Description)
	}
	if params.Amount != nil {
		bet.Amount = *params.Amount
	}
	if params.ClearDeadline {
		bet.Deadline = nil
	} else if params.Deadline != nil {
		bet.Deadline = params.Deadline
	}

	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, storageError("update bet", err)
	}
	if params.Options != nil {
		if err := uow.BetRepository().ReplaceOptions(ctx, betID, buildOptions(optionTexts)); err != nil {
			return nil, storageError("replace options", err)
		}
	}

	detail, err := uow.BetRepository().GetDetail(ctx, betID)
	if err != nil {
		return nil, storageError("get bet detail", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit bet edit", err)
	}
	return detail, nil
}

// ChangeStatus applies an administrative status transition
func (s *lifecycleService) ChangeStatus(ctx context.Context, actor models.Principal, betID int64, status models.BetStatus) (*models.Bet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", status), nil)
	}
	if status == models.BetStatusResolved {
		return nil, fmt.Errorf("use resolve to settle a bet: %w", ErrInvalidStateTransition)
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
	if !bet.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("cannot move bet from %s to %s: %w", bet.Status, status, ErrInvalidStateTransition)
	}

	participations, err := uow.ParticipationRepository().GetByBet(ctx, betID)
	if err != nil {
		return nil, storageError("get participations", err)
	}

	oldStatus := bet.Status
	bet.Status = status
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, storageError("update bet", err)
	}

	uow.EventBus().Publish(events.BetStatusChangedEvent{
		BetID:          bet.ID,
		ActorID:        actor.UserID,
		Title:          bet.Title,
		OldStatus:      oldStatus,
		NewStatus:      status,
		ParticipantIDs: models.ParticipantUserIDs(participations),
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit status change", err)
	}
	return bet, nil
}

// GetBet returns a bet with its options and participations
func (s *lifecycleService) GetBet(ctx context.Context, betID int64) (*models.BetDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	detail, err := uow.BetRepository().GetDetail(ctx, betID)
	if err != nil {
		return nil, storageError("get bet detail", err)
	}
	if detail == nil {
		return nil, ErrBetNotFound
	}
	return detail, nil
}

// ListBets returns bets, newest first, optionally filtered by status
func (s *lifecycleService) ListBets(ctx context.Context, status *models.BetStatus) ([]*models.Bet, error) {
	if status != nil && !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", *status), nil)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().List(ctx, status)
	if err != nil {
		return nil, storageError("list bets", err)
	}
	return bets, nil
}

func validateTitle(verr *ValidationError, title string) {
	switch {
	case title == "":
		verr.Add("title", "must not be empty")
	case len(title) > maxTitleLength:
		verr.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
}

func validateAmount(verr *ValidationError, amount int64) {
	if amount <= 0 {
		verr.Add("amount", "must be greater than zero")
	}
}

// validateOptions trims the option texts and checks count, emptiness,
// length and case-insensitive uniqueness
func validateOptions(verr *ValidationError, raw []string) []string {
	if len(raw) < models.MinBetOptions || len(raw) > models.MaxBetOptions {
		verr.Add("options", fmt.Sprintf("must have between %d and %d options", models.MinBetOptions, models.MaxBetOptions))
		return nil
	}

	texts := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, text := range raw {
		text = strings.TrimSpace(text)
		field := fmt.Sprintf("options[%d]", i)
		switch {
		case text == "":
			verr.Add(field, "must not be empty")
		case len(text) > maxOptionTextLength:
			verr.Add(field, fmt.Sprintf("must be at most %d characters", maxOptionTextLength))
		case seen[strings.ToLower(text)]:
			verr.Add(field, "duplicates another option")
		}
		seen[strings.ToLower(text)] = true
		texts[i] = text
	}
	return texts
}

func buildOptions(texts []string) []*models.BetOption {
	options := make([]*models.BetOption, len(texts))
	for i, text := range texts {
		options[i] = &models.BetOption{
			Text:     text,
			Position: int16(i),
		}
	}
	return options
}
