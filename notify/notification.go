package notify

import (
	"context"

	"betpool/models"
)

// Notification is one message addressed to a set of users
type Notification struct {
	Type        models.NotificationType `json:"type"`
	Recipients  []int64                 `json:"recipients"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Data        map[string]any          `json:"data,omitempty"`
}

// Sink delivers notifications somewhere: the database, a chat channel or a
// message bus
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// UserDirectory resolves broadcast audiences
type UserDirectory interface {
	GetAllIDs(ctx context.Context) ([]int64, error)
	GetIDsByRole(ctx context.Context, role models.Role) ([]int64, error)
}

// DeliveryObserver is told about each sink delivery
type DeliveryObserver interface {
	ObserveNotification(sink, notificationType string, err error)
}

// without returns ids minus every excluded id, keeping order and dropping
// duplicates
func without(ids []int64, excluded ...int64) []int64 {
	skip := make(map[int64]bool, len(excluded)+len(ids))
	for _, id := range excluded {
		skip[id] = true
	}

	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if skip[id] {
			continue
		}
		skip[id] = true
		result = append(result, id)
	}
	return result
}
