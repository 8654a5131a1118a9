package mongodb

import (
	"context"
	"fmt"
	"time"

	"medidispatch/internal/models"
	"medidispatch/internal/repositories/interfaces"
	"medidispatch/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationRepository struct {
	notifications *mongo.Collection
	deviceTokens  *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) interfaces.NotificationRepository {
	return &notificationRepository{
		notifications: db.Collection(utils.CollectionNotifications),
		deviceTokens:  db.Collection(utils.CollectionDeviceTokens),
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()

	_, err := r.notifications.InsertOne(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *notificationRepository) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.notifications.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	for cursor.Next(ctx) {
		var notification models.Notification
		if err := cursor.Decode(&notification); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}

	return notifications, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.notifications.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("notification")
	}

	return nil
}

// Device tokens
func (r *notificationRepository) UpsertDeviceToken(ctx context.Context, token *models.DeviceToken) error {
	now := time.Now()
	filter := bson.M{
		"user_id": token.UserID,
		"token":   token.Token,
	}
	update := bson.M{
		"$set": bson.M{
			"platform":   token.Platform,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"user_id":    token.UserID,
			"token":      token.Token,
			"created_at": now,
		},
	}

	_, err := r.deviceTokens.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert device token: %w", err)
	}

	return nil
}

func (r *notificationRepository) GetDeviceTokens(ctx context.Context, userID string) ([]*models.DeviceToken, error) {
	cursor, err := r.deviceTokens.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to find device tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []*models.DeviceToken
	for cursor.Next(ctx) {
		var token models.DeviceToken
		if err := cursor.Decode(&token); err != nil {
			return nil, fmt.Errorf("failed to decode device token: %w", err)
		}
		tokens = append(tokens, &token)
	}

	return tokens, nil
}

func (r *notificationRepository) DeleteDeviceToken(ctx context.Context, userID, token string) error {
	_, err := r.deviceTokens.DeleteOne(ctx, bson.M{
		"user_id": userID,
		"token":   token,
	})
	if err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}

	return nil
}
