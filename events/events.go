package events

import (
	"betpool/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeUserCreated       EventType = "user_created"
	EventTypeBetCreated        EventType = "bet_created"
	EventTypeBetStatusChanged  EventType = "bet_status_changed"
	EventTypeParticipantJoined EventType = "participant_joined"
	EventTypeBetResolved       EventType = "bet_resolved"
	EventTypeBetReverted       EventType = "bet_reverted"
	EventTypeBetDeleted        EventType = "bet_deleted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed credit movement
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	ChangeAmount    int64
	TransactionType models.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a newly registered account
type UserCreatedEvent struct {
	UserID      int64
	ActorID     int64
	DisplayName string
	Role        models.Role
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BetCreatedEvent is published when an admin opens a new bet
type BetCreatedEvent struct {
	BetID   int64
	ActorID int64
	Title   string
	Amount  int64
	Options []string
}

func (e BetCreatedEvent) Type() EventType {
	return EventTypeBetCreated
}

// BetStatusChangedEvent is published on every non-settlement status change,
// including automatic promotion when enough participants join.
type BetStatusChangedEvent struct {
	BetID          int64
	ActorID        int64
	Title          string
	OldStatus      models.BetStatus
	NewStatus      models.BetStatus
	ParticipantIDs []int64
}

func (e BetStatusChangedEvent) Type() EventType {
	return EventTypeBetStatusChanged
}

// ParticipantJoinedEvent is published when a user joins a bet
type ParticipantJoinedEvent struct {
	BetID          int64
	UserID         int64
	Title          string
	OptionID       int64
	OptionText     string
	ParticipantIDs []int64
}

func (e ParticipantJoinedEvent) Type() EventType {
	return EventTypeParticipantJoined
}

// BetResolvedEvent is published once a bet has been settled
type BetResolvedEvent struct {
	BetID             int64
	ActorID           int64
	Title             string
	WinningOptionID   int64
	WinningOptionText string
	Pool              int64
	Payouts           map[int64]int64
	ParticipantIDs    []int64
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// BetRevertedEvent is published when a settlement has been undone
type BetRevertedEvent struct {
	BetID          int64
	ActorID        int64
	Title          string
	ParticipantIDs []int64
}

func (e BetRevertedEvent) Type() EventType {
	return EventTypeBetReverted
}

// BetDeletedEvent is published after a bet and its participations are gone.
// ParticipantIDs are captured before deletion.
type BetDeletedEvent struct {
	BetID          int64
	ActorID        int64
	Title          string
	WasResolved    bool
	ParticipantIDs []int64
}

func (e BetDeletedEvent) Type() EventType {
	return EventTypeBetDeleted
}
