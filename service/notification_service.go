package service

import (
	"context"

	"betpool/models"
)

const notificationListLimit = 100

type notificationService struct {
	uowFactory UnitOfWorkFactory
}

// NewNotificationService creates a service over the caller's stored notifications
func NewNotificationService(uowFactory UnitOfWorkFactory) NotificationService {
	return &notificationService{uowFactory: uowFactory}
}

func (s *notificationService) List(ctx context.Context, actor models.Principal, unreadOnly bool) ([]*models.Notification, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	notifications, err := uow.NotificationRepository().GetByUser(ctx, actor.UserID, unreadOnly, notificationListLimit)
	if err != nil {
		return nil, storageError("list notifications", err)
	}
	return notifications, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor models.Principal) (int, error) {
	if err := requireAuthenticated(actor); err != nil {
		return 0, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	count, err := uow.NotificationRepository().CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, storageError("count unread notifications", err)
	}
	return count, nil
}

// MarkRead flags the actor's notifications as read; nil ids marks all
func (s *notificationService) MarkRead(ctx context.Context, actor models.Principal, ids []int64) (int64, error) {
	if err := requireAuthenticated(actor); err != nil {
		return 0, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	updated, err := uow.NotificationRepository().MarkRead(ctx, actor.UserID, ids)
	if err != nil {
		return 0, storageError("mark notifications read", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, storageError("commit notification update", err)
	}
	return updated, nil
}
