package service

import (
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	"github.com/stretchr/testify/mock"
)

var (
	adminActor = models.Principal{UserID: 900, Role: models.RoleAdmin}
	userActor  = models.Principal{UserID: 1, Role: models.RoleUser}
	anonymous  = models.Principal{}
)

type serviceFixture struct {
	factory        *MockUnitOfWorkFactory
	uow            *MockUnitOfWork
	users          *MockUserRepository
	history        *MockBalanceHistoryRepository
	bets           *MockBetRepository
	participations *MockParticipationRepository
	notifications  *MockNotificationRepository
	config         *config.Config
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		factory:        new(MockUnitOfWorkFactory),
		uow:            new(MockUnitOfWork),
		users:          new(MockUserRepository),
		history:        new(MockBalanceHistoryRepository),
		bets:           new(MockBetRepository),
		participations: new(MockParticipationRepository),
		notifications:  new(MockNotificationRepository),
		config: &config.Config{
			MinParticipantsForActive: 2,
			ReversalMode:             config.ReversalModeStake,
			Environment:              "test",
		},
	}
	f.uow.SetRepositories(f.users, f.history, f.bets, f.participations, f.notifications)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Rollback").Return(nil)
	return f
}

func (f *serviceFixture) expectCommit() {
	f.uow.On("Commit").Return(nil)
}

// expectCredit expects a single credit movement and its history entry
func (f *serviceFixture) expectCredit(userID, before, delta int64) {
	f.users.On("AdjustCredits", mock.Anything, userID, delta).Return(&models.CreditChange{
		UserID:        userID,
		BalanceBefore: before,
		BalanceAfter:  before + delta,
	}, nil).Once()
	f.history.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == userID && h.ChangeAmount == delta
	})).Return(nil).Once()
}

func (f *serviceFixture) assertExpectations(t mock.TestingT) {
	f.factory.AssertExpectations(t)
	f.uow.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.history.AssertExpectations(t)
	f.bets.AssertExpectations(t)
	f.participations.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func newTestBet(id, amount int64, status models.BetStatus) *models.Bet {
	bet := &models.Bet{
		ID:     id,
		Title:  "Will it rain tomorrow?",
		Amount: amount,
		Status: status,
	}
	if status == models.BetStatusResolved {
		winning := id * 10
		now := time.Now()
		bet.WinningOptionID = &winning
		bet.ResolvedAt = &now
	}
	return bet
}

func newTestOptions(betID int64, texts ...string) []*models.BetOption {
	options := make([]*models.BetOption, len(texts))
	for i, text := range texts {
		options[i] = &models.BetOption{
			ID:       betID*10 + int64(i),
			BetID:    betID,
			Text:     text,
			Position: int16(i),
		}
	}
	return options
}

func newTestParticipation(id, betID, userID, optionID, stake int64) *models.Participation {
	return &models.Participation{
		ID:       id,
		BetID:    betID,
		UserID:   userID,
		OptionID: optionID,
		Stake:    stake,
		Status:   models.ParticipationStatusAccepted,
	}
}

func eventsOfType[T events.Event](published []events.Event) []T {
	var matched []T
	for _, e := range published {
		if typed, ok := e.(T); ok {
			matched = append(matched, typed)
		}
	}
	return matched
}
