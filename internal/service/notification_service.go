package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/repository"
)

type NotificationService interface {
	ListOwn(ctx context.Context, userID int64) ([]domain.Notification, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, actor *domain.User, id int64) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) ListOwn(ctx context.Context, userID int64) ([]domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) ListAll(ctx context.Context, limit, offset int) ([]domain.Notification, error) {
	notifications, err := s.notificationRepo.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flips a notification to read. Only the recipient or an admin
// may do it.
func (s *notificationService) MarkRead(ctx context.Context, actor *domain.User, id int64) error {
	notification, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find notification: %w", err)
	}
	if notification == nil {
		return fmt.Errorf("%w: notification", domain.ErrNotFound)
	}
	if notification.UserID != actor.ID && actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: notification", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
