package models

import (
	"time"
)

// ParticipationStatus tracks a participation through settlement
type ParticipationStatus string

const (
	ParticipationStatusAccepted ParticipationStatus = "accepted"
	ParticipationStatusWon      ParticipationStatus = "won"
	ParticipationStatusLost     ParticipationStatus = "lost"
)

// Participation is a user's single pick on a bet
type Participation struct {
	ID           int64               `db:"id" json:"id"`
	BetID        int64               `db:"bet_id" json:"bet_id"`
	UserID       int64               `db:"user_id" json:"user_id"`
	OptionID     int64               `db:"option_id" json:"option_id"`
	Stake        int64               `db:"stake" json:"stake"`
	Status       ParticipationStatus `db:"status" json:"status"`
	PayoutAmount *int64              `db:"payout_amount" json:"payout_amount,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}

// ParticipantUserIDs collects the user ids of the given participations
func ParticipantUserIDs(participations []*Participation) []int64 {
	ids := make([]int64, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.UserID)
	}
	return ids
}
