package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeAssignment   NotificationType = "assignment"
	NotificationTypeCancellation NotificationType = "cancellation"
	NotificationTypeCompletion   NotificationType = "completion"
	NotificationTypeRouteStatus  NotificationType = "route_status"
)

// Notification is the in-app copy of a dispatched event. Push delivery is
// best-effort; this document is what clients reconstruct state from.
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RecipientID string             `json:"recipient_id" bson:"recipient_id" validate:"required"`
	Title       string             `json:"title" bson:"title"`
	Message     string             `json:"message" bson:"message"`
	Type        NotificationType   `json:"type" bson:"type"`
	Priority    EmergencyPriority  `json:"priority" bson:"priority"`
	Data        map[string]string  `json:"data" bson:"data"`
	IsRead      bool               `json:"is_read" bson:"is_read"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

type DeviceToken struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Token     string             `json:"token" bson:"token"`
	Platform  string             `json:"platform" bson:"platform"` // android, ios
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
