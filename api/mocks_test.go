package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"betpool/models"
	"betpool/service"
)

type mockSettlement struct{ mock.Mock }

func (m *mockSettlement) ResolveBet(ctx context.Context, actor models.Principal, betID int64, ref string) (*models.SettlementResult, error) {
	args := m.Called(ctx, actor, betID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func (m *mockSettlement) RevertBet(ctx context.Context, actor models.Principal, betID int64) (*models.Bet, error) {
	args := m.Called(ctx, actor, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *mockSettlement) DeleteBet(ctx context.Context, actor models.Principal, betID int64) error {
	return m.Called(ctx, actor, betID).Error(0)
}

type mockLifecycle struct{ mock.Mock }

func (m *mockLifecycle) CreateBet(ctx context.Context, actor models.Principal, params service.CreateBetParams) (*models.BetDetail, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *mockLifecycle) EditBet(ctx context.Context, actor models.Principal, betID int64, params service.EditBetParams) (*models.BetDetail, error) {
	args := m.Called(ctx, actor, betID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *mockLifecycle) ChangeStatus(ctx context.Context, actor models.Principal, betID int64, status models.BetStatus) (*models.Bet, error) {
	args := m.Called(ctx, actor, betID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *mockLifecycle) GetBet(ctx context.Context, betID int64) (*models.BetDetail, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *mockLifecycle) ListBets(ctx context.Context, status *models.BetStatus) ([]*models.Bet, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

type mockParticipation struct{ mock.Mock }

func (m *mockParticipation) Participate(ctx context.Context, actor models.Principal, betID int64, ref string, stake int64) (*models.Participation, error) {
	args := m.Called(ctx, actor, betID, ref, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participation), args.Error(1)
}

func (m *mockParticipation) RemoveParticipation(ctx context.Context, actor models.Principal, betID, participationID int64) error {
	return m.Called(ctx, actor, betID, participationID).Error(0)
}

func (m *mockParticipation) ChangeOption(ctx context.Context, actor models.Principal, betID, userID int64, ref string) (*models.Participation, error) {
	args := m.Called(ctx, actor, betID, userID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participation), args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) RegisterUser(ctx context.Context, actor models.Principal, displayName string, email *string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, actor, displayName, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockLedger) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockLedger) ListUsers(ctx context.Context, actor models.Principal) ([]*models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockLedger) SetCredits(ctx context.Context, actor models.Principal, userID int64, credits int64) (*models.User, error) {
	args := m.Called(ctx, actor, userID, credits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockLedger) ResetCredits(ctx context.Context, actor models.Principal) (int, error) {
	args := m.Called(ctx, actor)
	return args.Int(0), args.Error(1)
}

func (m *mockLedger) GetBalanceHistory(ctx context.Context, actor models.Principal, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, actor, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) List(ctx context.Context, actor models.Principal, unreadOnly bool) ([]*models.Notification, error) {
	args := m.Called(ctx, actor, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *mockNotifications) UnreadCount(ctx context.Context, actor models.Principal) (int, error) {
	args := m.Called(ctx, actor)
	return args.Int(0), args.Error(1)
}

func (m *mockNotifications) MarkRead(ctx context.Context, actor models.Principal, ids []int64) (int64, error) {
	args := m.Called(ctx, actor, ids)
	return args.Get(0).(int64), args.Error(1)
}

// tokenTable authenticates fixed tokens
type tokenTable map[string]models.Principal

func (t tokenTable) Verify(_ context.Context, raw string) (models.Principal, error) {
	p, ok := t[raw]
	if !ok {
		return models.Principal{}, service.ErrUnauthorized
	}
	return p, nil
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type observerStub struct {
	requests []recordedRequest
}

func (o *observerStub) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.requests = append(o.requests, recordedRequest{method: method, route: route, status: status})
}
