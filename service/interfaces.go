package service

import (
	"context"
	"time"

	"betpool/events"
	"betpool/models"
)

// UserRepository defines the interface for the credit ledger
type UserRepository interface {
	// GetByID retrieves a user by id, returning nil when absent
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetAll returns every user ordered by id
	GetAll(ctx context.Context) ([]*models.User, error)

	// GetIDsByRole returns the ids of every user holding role
	GetIDsByRole(ctx context.Context, role models.Role) ([]int64, error)

	// GetAllIDs returns the ids of every user
	GetAllIDs(ctx context.Context) ([]int64, error)

	// Create inserts a new user with zero credits
	Create(ctx context.Context, displayName string, email *string, role models.Role) (*models.User, error)

	// AdjustCredits applies a signed delta in a single statement
	AdjustCredits(ctx context.Context, userID int64, delta int64) (*models.CreditChange, error)

	// SetCredits overwrites a user's credits
	SetCredits(ctx context.Context, userID int64, credits int64) (*models.CreditChange, error)

	// ResetCreditsForRole zeroes the credits of every user with role and
	// returns the changes for accounts that held a non-zero balance
	ResetCreditsForRole(ctx context.Context, role models.Role) ([]*models.CreditChange, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent history entries of a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)

	// GetByRelated returns every entry referring to an entity
	GetByRelated(ctx context.Context, relatedType models.RelatedType, relatedID int64) ([]*models.BalanceHistory, error)
}

// BetRepository defines the interface for bets and their options
type BetRepository interface {
	CreateWithOptions(ctx context.Context, bet *models.Bet, options []*models.BetOption) error
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetForUpdate reads the bet and holds a row lock until the transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.Bet, error)

	GetOptions(ctx context.Context, betID int64) ([]*models.BetOption, error)
	GetDetail(ctx context.Context, id int64) (*models.BetDetail, error)
	List(ctx context.Context, status *models.BetStatus) ([]*models.Bet, error)
	Update(ctx context.Context, bet *models.Bet) error
	ReplaceOptions(ctx context.Context, betID int64, options []*models.BetOption) error
	Delete(ctx context.Context, id int64) error
}

// ParticipationRepository defines the interface for bet participations
type ParticipationRepository interface {
	// Create inserts a participation, returning ErrAlreadyParticipated on a
	// (bet, user) uniqueness violation
	Create(ctx context.Context, participation *models.Participation) error

	GetByID(ctx context.Context, id int64) (*models.Participation, error)
	GetByBetAndUser(ctx context.Context, betID, userID int64) (*models.Participation, error)
	GetByBet(ctx context.Context, betID int64) ([]*models.Participation, error)
	CountByBet(ctx context.Context, betID int64) (int, error)
	UpdateOption(ctx context.Context, id int64, optionID int64) error

	// UpdateSettlement persists status and payout for each participation
	UpdateSettlement(ctx context.Context, participations []*models.Participation) error

	// ResetByBet returns every participation of a bet to accepted with no payout
	ResetByBet(ctx context.Context, betID int64) error

	Delete(ctx context.Context, id int64) error
	DeleteByBet(ctx context.Context, betID int64) error
}

// NotificationRepository defines the interface for stored notifications
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	GetByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)

	// MarkRead flags the given notifications of a user as read; an empty
	// ids slice marks all of them
	MarkRead(ctx context.Context, userID int64, ids []int64) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and discards queued events.
	// Calling it after Commit is a no-op.
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	BetRepository() BetRepository
	ParticipationRepository() ParticipationRepository
	NotificationRepository() NotificationRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Clock returns the current time; swapped in tests
type Clock func() time.Time

// SettlementService resolves bets and undoes settlements
type SettlementService interface {
	// ResolveBet settles a bet on the referenced winning option
	ResolveBet(ctx context.Context, actor models.Principal, betID int64, winningOptionRef string) (*models.SettlementResult, error)

	// RevertBet undoes a settlement and reopens the bet as active
	RevertBet(ctx context.Context, actor models.Principal, betID int64) (*models.Bet, error)

	// DeleteBet removes a bet, reversing its settlement first when resolved
	DeleteBet(ctx context.Context, actor models.Principal, betID int64) error
}

// CreateBetParams holds the input for opening a bet
type CreateBetParams struct {
	Title       string
	Description string
	Amount      int64
	Options     []string
	Deadline    *time.Time
}

// EditBetParams holds optional changes to a bet; nil fields are left as is
type EditBetParams struct {
	Title         *string
	Description   *string
	Amount        *int64
	Deadline      *time.Time
	ClearDeadline bool
	Options       []string
}

// LifecycleService manages creation, editing and status of bets
type LifecycleService interface {
	CreateBet(ctx context.Context, actor models.Principal, params CreateBetParams) (*models.BetDetail, error)
	EditBet(ctx context.Context, actor models.Principal, betID int64, params EditBetParams) (*models.BetDetail, error)
	ChangeStatus(ctx context.Context, actor models.Principal, betID int64, status models.BetStatus) (*models.Bet, error)
	GetBet(ctx context.Context, betID int64) (*models.BetDetail, error)
	ListBets(ctx context.Context, status *models.BetStatus) ([]*models.Bet, error)
}

// ParticipationService manages who takes part in a bet and on which option
type ParticipationService interface {
	// Participate joins the actor to a bet. A stake of 0 means the bet's amount.
	Participate(ctx context.Context, actor models.Principal, betID int64, optionRef string, stake int64) (*models.Participation, error)
	RemoveParticipation(ctx context.Context, actor models.Principal, betID, participationID int64) error
	ChangeOption(ctx context.Context, actor models.Principal, betID, userID int64, optionRef string) (*models.Participation, error)
}

// LedgerService exposes account and credit administration
type LedgerService interface {
	RegisterUser(ctx context.Context, actor models.Principal, displayName string, email *string, role models.Role) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Principal) ([]*models.User, error)
	SetCredits(ctx context.Context, actor models.Principal, userID int64, credits int64) (*models.User, error)
	ResetCredits(ctx context.Context, actor models.Principal) (int, error)
	GetBalanceHistory(ctx context.Context, actor models.Principal, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// NotificationService reads and acknowledges stored notifications
type NotificationService interface {
	List(ctx context.Context, actor models.Principal, unreadOnly bool) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, actor models.Principal) (int, error)
	MarkRead(ctx context.Context, actor models.Principal, ids []int64) (int64, error)
}
