package repository

import (
	"context"

	"academic-auth-be/internal/model"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error

	GetNotificationTypeByCode(ctx context.Context, code string) (*model.NotificationType, error)
	// GetRecipients resolves users by role, optionally narrowed to one institution.
	GetRecipients(ctx context.Context, role string, institutionID *uuid.UUID) ([]model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}
