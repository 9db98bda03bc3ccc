package service

import (
	"context"
	"testing"
	"time"

	"betpool/events"
	"betpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var participationNow = time.Date(2026, 5, 10, 18, 30, 0, 0, time.UTC)

func newParticipationFixture() (*serviceFixture, *participationService) {
	f := newServiceFixture()
	svc := NewParticipationService(f.factory, f.config, nil).(*participationService)
	svc.now = fixedClock(participationNow)
	return f, svc
}

func TestParticipationService_Participate_FirstJoinKeepsOpen(t *testing.T) {
	ctx := context.Background()
	f, svc := newParticipationFixture()
	bet := newTestBet(1, 100, models.BetStatusOpen)

	f.bets.On("GetForUpdate", ctx, int64(1)).Return(bet, nil)
	f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
	f.participations.On("GetByBetAndUser", ctx, int64(1), userActor.UserID).Return(nil, nil)
	f.participations.On("Create", ctx, mock.MatchedBy(func(p *models.Participation) bool {
		return p.OptionID == 11 && p.Stake == 100 && p.Status == models.ParticipationStatusAccepted
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Participation).ID = 500
	}).Return(nil)
	f.participations.On("GetByBet", ctx, int64(1)).Return([]*models.Participation{
		newTestParticipation(500, 1, userActor.UserID, 11, 100),
	}, nil)
	f.expectCommit()

	p, err := svc.Participate(ctx, userActor, 1, "option_1", 0)
	require.NoError(t, err)

	assert.Equal(t, int64(500), p.ID)
	assert.Equal(t, models.BetStatusOpen, bet.Status)
	f.bets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	joined := eventsOfType[events.ParticipantJoinedEvent](f.uow.FlushedEvents())
	require.Len(t, joined, 1)
	assert.Equal(t, "No", joined[0].OptionText)
	f.assertExpectations(t)
}

func TestParticipationService_Participate_PromotesAtThreshold(t *testing.T) {
	ctx := context.Background()
	f, svc := newParticipationFixture()
	bet := newTestBet(1, 100, models.BetStatusOpen)

	f.bets.On("GetForUpdate", ctx, int64(1)).Return(bet, nil)
	f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
	f.participations.On("GetByBetAndUser", ctx, int64(1), userActor.UserID).Return(nil, nil)
	f.participations.On("Create", ctx, mock.Anything).Return(nil)
	f.participations.On("GetByBet", ctx, int64(1)).Return([]*models.Participation{
		newTestParticipation(499, 1, 2, 10, 100),
		newTestParticipation(500, 1, userActor.UserID, 10, 100),
	}, nil)
	f.bets.On("Update", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.Status == models.BetStatusActive
	})).Return(nil)
	f.expectCommit()

	_, err := svc.Participate(ctx, userActor, 1, "Yes", 100)
	require.NoError(t, err)

	changed := eventsOfType[events.BetStatusChangedEvent](f.uow.FlushedEvents())
	require.Len(t, changed, 1)
	assert.Equal(t, models.BetStatusOpen, changed[0].OldStatus)
	assert.Equal(t, models.BetStatusActive, changed[0].NewStatus)
	f.assertExpectations(t)
}

func TestParticipationService_Participate_Rejections(t *testing.T) {
	ctx := context.Background()
	deadline := participationNow

	tests := []struct {
		name    string
		actor   models.Principal
		bet     *models.Bet
		ref     string
		stake   int64
		wantErr error
	}{
		{name: "anonymous", actor: anonymous, wantErr: ErrUnauthorized},
		{name: "missing bet", actor: userActor, bet: nil, ref: "option_0", wantErr: ErrBetNotFound},
		{name: "resolved", actor: userActor, bet: newTestBet(1, 100, models.BetStatusResolved), ref: "option_0", wantErr: ErrBetAlreadyResolved},
		{name: "in progress", actor: userActor, bet: newTestBet(1, 100, models.BetStatusInProgress), ref: "option_0", wantErr: ErrInvalidStateTransition},
		{name: "deadline reached", actor: userActor, bet: &models.Bet{ID: 1, Amount: 100, Status: models.BetStatusActive, Deadline: &deadline}, ref: "option_0", wantErr: ErrDeadlinePassed},
		{name: "wrong stake", actor: userActor, bet: newTestBet(1, 100, models.BetStatusActive), ref: "option_0", stake: 50, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, svc := newParticipationFixture()
			if tt.actor.UserID != 0 {
				f.bets.On("GetForUpdate", ctx, int64(1)).Return(tt.bet, nil)
			}

			_, err := svc.Participate(ctx, tt.actor, 1, tt.ref, tt.stake)
			assert.ErrorIs(t, err, tt.wantErr)
			f.participations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.uow.AssertNotCalled(t, "Commit")
		})
	}
}

func TestParticipationService_Participate_InvalidOption(t *testing.T) {
	ctx := context.Background()
	f, svc := newParticipationFixture()

	f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
	f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)

	_, err := svc.Participate(ctx, userActor, 1, "option_7", 0)
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParticipationService_Participate_Duplicate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing participation", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
		f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
		f.participations.On("GetByBetAndUser", ctx, int64(1), userActor.UserID).
			Return(newTestParticipation(3, 1, userActor.UserID, 10, 100), nil)

		_, err := svc.Participate(ctx, userActor, 1, "option_1", 0)
		assert.ErrorIs(t, err, ErrAlreadyParticipated)
	})

	t.Run("constraint violation on insert", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
		f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
		f.participations.On("GetByBetAndUser", ctx, int64(1), userActor.UserID).Return(nil, nil)
		f.participations.On("Create", ctx, mock.Anything).Return(ErrAlreadyParticipated)

		_, err := svc.Participate(ctx, userActor, 1, "option_1", 0)
		assert.ErrorIs(t, err, ErrAlreadyParticipated)
		assert.NotErrorIs(t, err, ErrStorage)
	})
}

func TestParticipationService_RemoveParticipation(t *testing.T) {
	ctx := context.Background()

	t.Run("removes", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
		f.participations.On("GetByID", ctx, int64(3)).Return(newTestParticipation(3, 1, 2, 10, 100), nil)
		f.participations.On("Delete", ctx, int64(3)).Return(nil)
		f.expectCommit()

		require.NoError(t, svc.RemoveParticipation(ctx, adminActor, 1, 3))
		f.assertExpectations(t)
	})

	t.Run("participation of another bet", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
		f.participations.On("GetByID", ctx, int64(3)).Return(newTestParticipation(3, 2, 2, 20, 100), nil)

		err := svc.RemoveParticipation(ctx, adminActor, 1, 3)
		assert.ErrorIs(t, err, ErrParticipationNotFound)
	})

	t.Run("resolved bet", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusResolved), nil)

		err := svc.RemoveParticipation(ctx, adminActor, 1, 3)
		assert.ErrorIs(t, err, ErrBetAlreadyResolved)
	})

	t.Run("non admin", func(t *testing.T) {
		_, svc := newParticipationFixture()
		assert.ErrorIs(t, svc.RemoveParticipation(ctx, userActor, 1, 3), ErrForbidden)
	})
}

func TestParticipationService_ChangeOption(t *testing.T) {
	ctx := context.Background()

	t.Run("moves to new option", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusInProgress), nil)
		f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
		f.participations.On("GetByBetAndUser", ctx, int64(1), int64(2)).Return(newTestParticipation(3, 1, 2, 10, 100), nil)
		f.participations.On("UpdateOption", ctx, int64(3), int64(11)).Return(nil)
		f.expectCommit()

		p, err := svc.ChangeOption(ctx, adminActor, 1, 2, "No")
		require.NoError(t, err)
		assert.Equal(t, int64(11), p.OptionID)
		f.assertExpectations(t)
	})

	t.Run("same option is a no-op", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
		f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
		f.participations.On("GetByBetAndUser", ctx, int64(1), int64(2)).Return(newTestParticipation(3, 1, 2, 10, 100), nil)
		f.expectCommit()

		_, err := svc.ChangeOption(ctx, adminActor, 1, 2, "option_0")
		require.NoError(t, err)
		f.participations.AssertNotCalled(t, "UpdateOption", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("user never joined", func(t *testing.T) {
		f, svc := newParticipationFixture()
		f.bets.On("GetForUpdate", ctx, int64(1)).Return(newTestBet(1, 100, models.BetStatusActive), nil)
		f.bets.On("GetOptions", ctx, int64(1)).Return(newTestOptions(1, "Yes", "No"), nil)
		f.participations.On("GetByBetAndUser", ctx, int64(1), int64(2)).Return(nil, nil)

		_, err := svc.ChangeOption(ctx, adminActor, 1, 2, "option_0")
		assert.ErrorIs(t, err, ErrParticipationNotFound)
	})
}
