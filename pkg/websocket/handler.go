package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	hub *Hub
}

func NewHandler() *Handler {
	hub := NewHub()
	go hub.Run()

	return &Handler{
		hub: hub,
	}
}

// HandleWebSocket upgrades a dashboard connection. Identity comes from the
// auth layer upstream; here we only need who is connecting and in what role.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	role := c.DefaultQuery("role", "hospital")
	hospitalID := c.Query("hospital_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, userID, role, hospitalID)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// SendRouteUpdate pushes a route status change to route watchers and the
// owning hospital dashboard.
func (h *Handler) SendRouteUpdate(routeID, hospitalID primitive.ObjectID, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendRouteUpdate(routeID, message)
	h.hub.SendToHospital(hospitalID, message)
}

func (h *Handler) SendUserNotification(userID string, notificationType string, data map[string]interface{}) {
	message := Message{
		Type:      notificationType,
		UserID:    userID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToUser(userID, message)
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}
