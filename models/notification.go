package models

import (
	"time"
)

// NotificationType classifies a stored notification
type NotificationType string

const (
	NotificationTypeNewBet         NotificationType = "new_bet"
	NotificationTypeNewParticipant NotificationType = "new_participant"
	NotificationTypeBetInProgress  NotificationType = "bet_in_progress"
	NotificationTypeBetResolved    NotificationType = "bet_resolved"
	NotificationTypeBetReverted    NotificationType = "bet_reverted"
	NotificationTypeBetDeleted     NotificationType = "bet_deleted"
	NotificationTypeNewUser        NotificationType = "new_user"
)

// Notification is a message stored for one recipient
type Notification struct {
	ID          int64            `db:"id" json:"id"`
	UserID      int64            `db:"user_id" json:"user_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Data        map[string]any   `db:"data" json:"data,omitempty"`
	Read        bool             `db:"read" json:"read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
