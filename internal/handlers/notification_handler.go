package handlers

import (
	"strconv"

	"medidispatch/internal/services"
	"medidispatch/internal/utils"
	"medidispatch/internal/validators"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// RegisterDeviceToken stores a push token for a user
func (h *NotificationHandler) RegisterDeviceToken(c *gin.Context) {
	var request validators.DeviceTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateDeviceToken(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	if err := h.notificationService.RegisterDeviceToken(c.Request.Context(), request.UserID, request.Token, request.Platform); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Device token registered", nil)
}

// GetNotifications lists a user's in-app notifications, newest first
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		utils.BadRequestResponse(c, "Missing user ID")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notificationService.GetNotifications(c.Request.Context(), userID, limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Notifications retrieved", notifications)
}

// MarkNotificationRead flags one notification as read
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.notificationService.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", nil)
}
