package interfaces

import (
	"context"

	"medidispatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) error

	// Device tokens
	UpsertDeviceToken(ctx context.Context, token *models.DeviceToken) error
	GetDeviceTokens(ctx context.Context, userID string) ([]*models.DeviceToken, error)
	DeleteDeviceToken(ctx context.Context, userID, token string) error
}
