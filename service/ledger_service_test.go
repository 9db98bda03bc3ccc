package service

import (
	"context"
	"testing"

	"betpool/events"
	"betpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	svc := NewLedgerService(f.factory, nil)

	email := "dana@example.com"
	f.users.On("Create", ctx, "Dana", &email, models.RoleUser).
		Return(&models.User{ID: 8, DisplayName: "Dana", Email: &email, Role: models.RoleUser}, nil)
	f.expectCommit()

	user, err := svc.RegisterUser(ctx, adminActor, "  Dana ", &email, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, int64(8), user.ID)

	created := eventsOfType[events.UserCreatedEvent](f.uow.FlushedEvents())
	require.Len(t, created, 1)
	assert.Equal(t, adminActor.UserID, created[0].ActorID)
	f.assertExpectations(t)
}

func TestLedgerService_RegisterUser_Validation(t *testing.T) {
	f := newServiceFixture()
	svc := NewLedgerService(f.factory, nil)

	_, err := svc.RegisterUser(context.Background(), adminActor, " ", nil, models.Role("owner"))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Len(t, validation.Fields, 2)
	f.factory.AssertNotCalled(t, "Create")
}

func TestLedgerService_SetCredits(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	svc := NewLedgerService(f.factory, nil)

	f.users.On("SetCredits", ctx, int64(4), int64(750)).
		Return(&models.CreditChange{UserID: 4, BalanceBefore: 500, BalanceAfter: 750}, nil)
	f.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == 250 && h.TransactionType == models.TransactionTypeCreditAdjustment
	})).Return(nil)
	f.users.On("GetByID", ctx, int64(4)).Return(&models.User{ID: 4, Credits: 750}, nil)
	f.expectCommit()

	user, err := svc.SetCredits(ctx, adminActor, 4, 750)
	require.NoError(t, err)
	assert.Equal(t, int64(750), user.Credits)
	f.assertExpectations(t)
}

func TestLedgerService_SetCredits_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	svc := NewLedgerService(f.factory, nil)

	_, err := svc.SetCredits(ctx, adminActor, 4, -1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SetCredits(ctx, userActor, 4, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	f.users.On("SetCredits", ctx, int64(99), int64(10)).Return(nil, ErrUserNotFound)
	_, err = svc.SetCredits(ctx, adminActor, 99, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrStorage)
}

func TestLedgerService_ResetCredits(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	metrics := new(MockMetricsRecorder)
	svc := NewLedgerService(f.factory, metrics)

	f.users.On("ResetCreditsForRole", ctx, models.RoleUser).Return([]*models.CreditChange{
		{UserID: 1, BalanceBefore: 300, BalanceAfter: 0},
		{UserID: 2, BalanceBefore: -50, BalanceAfter: 0},
	}, nil)
	f.history.On("Record", ctx, mock.Anything).Return(nil).Twice()
	f.expectCommit()
	metrics.On("AddCreditsMoved", string(models.TransactionTypeCreditReset), int64(350)).Return()

	count, err := svc.ResetCredits(ctx, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	f.assertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestLedgerService_GetBalanceHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("own history with default limit", func(t *testing.T) {
		f := newServiceFixture()
		svc := NewLedgerService(f.factory, nil)
		f.history.On("GetByUser", ctx, userActor.UserID, defaultHistoryLimit).Return([]*models.BalanceHistory{}, nil)

		_, err := svc.GetBalanceHistory(ctx, userActor, userActor.UserID, 0)
		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("someone else's history", func(t *testing.T) {
		f := newServiceFixture()
		svc := NewLedgerService(f.factory, nil)

		_, err := svc.GetBalanceHistory(ctx, userActor, 42, 10)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin reads anyone", func(t *testing.T) {
		f := newServiceFixture()
		svc := NewLedgerService(f.factory, nil)
		f.history.On("GetByUser", ctx, int64(42), 10).Return([]*models.BalanceHistory{}, nil)

		_, err := svc.GetBalanceHistory(ctx, adminActor, 42, 10)
		require.NoError(t, err)
	})
}

func TestLedgerService_GetUser(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	svc := NewLedgerService(f.factory, nil)
	f.users.On("GetByID", ctx, int64(3)).Return(nil, nil)

	_, err := svc.GetUser(ctx, 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
