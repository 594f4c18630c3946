package service

import (
	"context"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/repository"
)

type NotificationService interface {
	Notify(ctx context.Context, userUID, typ, title, body string, orderID *uint64)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByOrder(ctx context.Context, userUID string, orderID uint64) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

// Notify is best-effort; a failed insert must never break the mutation that
// triggered it.
func (s *notificationService) Notify(ctx context.Context, userUID, typ, title, body string, orderID *uint64) {
	if userUID == "" || typ == "" {
		return
	}
	n := &model.Notification{
		UserUID: userUID,
		Type:    typ,
		Title:   title,
		Body:    body,
		OrderID: orderID,
	}
	_ = s.repo.Create(ctx, n)
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

func (s *notificationService) MarkByOrder(ctx context.Context, userUID string, orderID uint64) error {
	if userUID == "" || orderID == 0 {
		return nil
	}
	return s.repo.MarkByOrder(ctx, userUID, orderID)
}
