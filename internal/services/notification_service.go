package services

import (
	"context"

	"medidispatch/internal/models"
	"medidispatch/internal/repositories/interfaces"
	"medidispatch/pkg/logger"
	"medidispatch/pkg/push"
	"medidispatch/pkg/sms"
	"medidispatch/pkg/websocket"
)

// Notifier is the dispatch-facing contract for fan-out. Every delivery is
// best-effort; implementations log failures and never return them to the
// dispatch path.
type Notifier interface {
	Notify(ctx context.Context, input *NotificationInput)
	NotifySMS(ctx context.Context, phone, message string)
}

type NotificationInput struct {
	RecipientID string
	Type        models.NotificationType
	Title       string
	Message     string
	Priority    models.EmergencyPriority
	Data        map[string]string
}

type NotificationService struct {
	notificationRepo interfaces.NotificationRepository
	pushProvider     push.PushProvider
	smsProvider      sms.SMSProvider
	hub              *websocket.Hub
	logger           *logger.Logger
	smsFrom          string
}

func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	pushProvider push.PushProvider,
	smsProvider sms.SMSProvider,
	hub *websocket.Hub,
	log *logger.Logger,
	smsFrom string,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		pushProvider:     pushProvider,
		smsProvider:      smsProvider,
		hub:              hub,
		logger:           log,
		smsFrom:          smsFrom,
	}
}

// Notify persists the in-app copy, pushes to every registered device, and
// broadcasts to the recipient's live socket. The stored document is the
// source of truth; push and socket delivery may silently fail.
func (s *NotificationService) Notify(ctx context.Context, input *NotificationInput) {
	notification := &models.Notification{
		RecipientID: input.RecipientID,
		Title:       input.Title,
		Message:     input.Message,
		Type:        input.Type,
		Priority:    input.Priority,
		Data:        input.Data,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.WithError(err).WithField("recipient_id", input.RecipientID).
			Error("Failed to persist notification")
	}

	s.sendPush(ctx, input)

	if s.hub != nil {
		s.hub.SendToUser(input.RecipientID, websocket.Message{
			Type:   string(input.Type),
			UserID: input.RecipientID,
			Data: map[string]interface{}{
				"title":   input.Title,
				"message": input.Message,
				"data":    input.Data,
			},
		})
	}
}

func (s *NotificationService) NotifySMS(ctx context.Context, phone, message string) {
	if s.smsProvider == nil || phone == "" {
		return
	}

	_, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		From:    s.smsFrom,
		Message: message,
	})
	if err != nil {
		s.logger.WithError(err).WithField("phone", phone).Warn("Failed to send SMS")
	}
}

func (s *NotificationService) sendPush(ctx context.Context, input *NotificationInput) {
	if s.pushProvider == nil {
		return
	}

	tokens, err := s.notificationRepo.GetDeviceTokens(ctx, input.RecipientID)
	if err != nil {
		s.logger.WithError(err).WithField("recipient_id", input.RecipientID).
			Warn("Failed to load device tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	requests := make([]*push.NotificationRequest, 0, len(tokens))
	for _, token := range tokens {
		requests = append(requests, &push.NotificationRequest{
			Token:     token.Token,
			Title:     input.Title,
			Body:      input.Message,
			Data:      input.Data,
			Priority:  pushPriority(input.Priority),
			ChannelID: pushChannel(input.Priority),
		})
	}

	responses, err := s.pushProvider.SendBulkNotifications(ctx, requests)
	if err != nil {
		s.logger.WithError(err).WithField("recipient_id", input.RecipientID).
			Warn("Push delivery failed")
		return
	}

	// Purge tokens the provider reports as dead so we stop retrying them.
	for _, resp := range responses {
		if !resp.Success && resp.Token != "" {
			s.notificationRepo.DeleteDeviceToken(ctx, input.RecipientID, resp.Token)
		}
	}
}

// RegisterDeviceToken stores or refreshes a push token for a user.
func (s *NotificationService) RegisterDeviceToken(ctx context.Context, userID, token, platform string) error {
	return s.notificationRepo.UpsertDeviceToken(ctx, &models.DeviceToken{
		UserID:   userID,
		Token:    token,
		Platform: platform,
	})
}

func (s *NotificationService) GetNotifications(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	return s.notificationRepo.GetByRecipientID(ctx, recipientID, limit)
}

func (s *NotificationService) MarkNotificationRead(ctx context.Context, id string) error {
	oid, err := parseObjectID(id, "notification")
	if err != nil {
		return err
	}
	return s.notificationRepo.MarkAsRead(ctx, oid)
}

func pushPriority(priority models.EmergencyPriority) string {
	if priority == models.PriorityCritical || priority == models.PriorityHigh {
		return "high"
	}
	return "normal"
}

func pushChannel(priority models.EmergencyPriority) string {
	if priority == models.PriorityCritical {
		return "dispatch_critical"
	}
	return "dispatch_default"
}
