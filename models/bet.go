package models

import (
	"time"
)

// BetStatus represents the lifecycle state of a bet
type BetStatus string

const (
	BetStatusOpen       BetStatus = "open"
	BetStatusActive     BetStatus = "active"
	BetStatusInProgress BetStatus = "in-progress"
	BetStatusResolved   BetStatus = "resolved"
)

const (
	MinBetOptions = 2
	MaxBetOptions = 5
)

// Valid reports whether s is a known status
func (s BetStatus) Valid() bool {
	switch s {
	case BetStatusOpen, BetStatusActive, BetStatusInProgress, BetStatusResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether an administrative status change from s to
// next is allowed. Resolution and its reversal have dedicated operations and
// are never reachable through a plain status change.
func (s BetStatus) CanTransitionTo(next BetStatus) bool {
	switch s {
	case BetStatusOpen:
		return next == BetStatusActive || next == BetStatusInProgress
	case BetStatusActive:
		return next == BetStatusInProgress
	case BetStatusInProgress:
		return next == BetStatusActive
	}
	return false
}

// AcceptsParticipants reports whether users may join a bet in this status
func (s BetStatus) AcceptsParticipants() bool {
	return s == BetStatusOpen || s == BetStatusActive
}

// Bet is a proposition users can join by picking one of its options
type Bet struct {
	ID              int64      `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Amount          int64      `db:"amount" json:"amount"`
	Status          BetStatus  `db:"status" json:"status"`
	WinningOptionID *int64     `db:"winning_option_id" json:"winning_option_id,omitempty"`
	Deadline        *time.Time `db:"deadline" json:"deadline,omitempty"`
	CreatedBy       *int64     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IsResolved checks if the bet has been settled
func (b *Bet) IsResolved() bool {
	return b.Status == BetStatusResolved
}

// DeadlinePassed checks whether the bet's deadline lies before now
func (b *Bet) DeadlinePassed(now time.Time) bool {
	return b.Deadline != nil && !now.Before(*b.Deadline)
}

// BetOption is one possible outcome of a bet
type BetOption struct {
	ID       int64  `db:"id" json:"id"`
	BetID    int64  `db:"bet_id" json:"bet_id"`
	Text     string `db:"text" json:"text"`
	Position int16  `db:"position" json:"position"`
}

// BetDetail combines a bet with its options and participations
type BetDetail struct {
	Bet            *Bet             `json:"bet"`
	Options        []*BetOption     `json:"options"`
	Participations []*Participation `json:"participations"`
}

// OptionByID returns the option with the given id, or nil
func (d *BetDetail) OptionByID(id int64) *BetOption {
	for _, opt := range d.Options {
		if opt.ID == id {
			return opt
		}
	}
	return nil
}

// ParticipantIDs returns the user ids of every participation
func (d *BetDetail) ParticipantIDs() []int64 {
	return ParticipantUserIDs(d.Participations)
}

// SettlementResult describes the outcome of resolving a bet
type SettlementResult struct {
	Bet           *Bet             `json:"bet"`
	WinningOption *BetOption       `json:"winning_option"`
	Winners       []*Participation `json:"winners"`
	Losers        []*Participation `json:"losers"`
	Pool          int64            `json:"pool"`
	Payouts       map[int64]int64  `json:"payouts"` // user ID -> payout amount
}
