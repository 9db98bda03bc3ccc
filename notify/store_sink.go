package notify

import (
	"context"

	"betpool/models"
	"betpool/service"
)

// StoreSink persists one notification row per recipient
type StoreSink struct {
	repo service.NotificationRepository
}

func NewStoreSink(repo service.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, n Notification) error {
	rows := make([]*models.Notification, 0, len(n.Recipients))
	for _, userID := range n.Recipients {
		rows = append(rows, &models.Notification{
			UserID:      userID,
			Type:        n.Type,
			Title:       n.Title,
			Description: n.Description,
			Data:        n.Data,
		})
	}
	return s.repo.CreateBatch(ctx, rows)
}
