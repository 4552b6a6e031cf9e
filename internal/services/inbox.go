package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

// InboxService serves the in-app notification inbox
type InboxService struct {
	notifications NotificationRepository
	clock         Clock
	logger        *zap.SugaredLogger
}

// NewInboxService creates a new inbox service
func NewInboxService(notifications NotificationRepository, clock Clock, logger *zap.SugaredLogger) *InboxService {
	return &InboxService{notifications: notifications, clock: clock, logger: logger}
}

// List returns the recipient's notifications, newest first
func (s *InboxService) List(ctx context.Context, recipient uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.notifications.ListForRecipient(ctx, recipient, unreadOnly, limit)
}

// UnreadCount returns the badge count
func (s *InboxService) UnreadCount(ctx context.Context, recipient uuid.UUID) (int64, error) {
	return s.notifications.CountUnread(ctx, recipient)
}

// MarkRead marks one notification read; repeated calls are no-ops
func (s *InboxService) MarkRead(ctx context.Context, id, recipient uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, recipient, s.clock.Now())
}
