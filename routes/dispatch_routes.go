package routes

import (
	"medidispatch/internal/handlers"
	"medidispatch/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupDispatchRoutes wires the assignment and route lifecycle API.
func SetupDispatchRoutes(r *gin.RouterGroup, dispatchHandler *handlers.DispatchHandler) {
	emergencies := r.Group("/emergencies")
	{
		emergencies.POST("", dispatchHandler.CreateEmergency)
		emergencies.GET("", dispatchHandler.ListEmergenciesByStatus)
		emergencies.GET("/:id", dispatchHandler.GetEmergency)
		emergencies.GET("/:id/candidates", dispatchHandler.FindCandidates)
		emergencies.POST("/:id/assign", dispatchHandler.Assign)
		emergencies.POST("/:id/cancel", dispatchHandler.Cancel)
		emergencies.POST("/:id/complete", dispatchHandler.Complete)
		emergencies.GET("/:id/audit", dispatchHandler.GetAuditTrail)
	}

	routes := r.Group("/routes")
	{
		routes.GET("/:id", dispatchHandler.GetRoute)
		routes.PATCH("/:id/status", dispatchHandler.UpdateRouteStatus)
	}

	hospitals := r.Group("/hospitals/:hospital_id")
	{
		hospitals.GET("/emergencies", dispatchHandler.ListHospitalEmergencies)
		hospitals.GET("/emergencies/active", dispatchHandler.GetHospitalActiveEmergencies)
		hospitals.GET("/dispatch-queue", dispatchHandler.GetDispatchQueue)
		hospitals.GET("/ambulances", dispatchHandler.ListHospitalAmbulances)
		hospitals.GET("/routes/active", dispatchHandler.GetHospitalActiveRoutes)
		hospitals.GET("/routes/pending-clearance", dispatchHandler.GetPolicePendingRoutes)
		hospitals.GET("/routes/cleared", dispatchHandler.GetPoliceActiveRoutes)
	}

	ambulances := r.Group("/ambulances")
	{
		ambulances.PUT("/:id/location", dispatchHandler.UpdateAmbulanceLocation)
		ambulances.GET("/:id/routes", dispatchHandler.GetAmbulanceRoutes)
		ambulances.GET("/:id/audit", dispatchHandler.GetAmbulanceAuditTrail)
	}
}

// SetupNotificationRoutes wires device tokens and in-app notifications.
func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("/device-tokens", notificationHandler.RegisterDeviceToken)
		notifications.GET("/users/:user_id", notificationHandler.GetNotifications)
		notifications.PUT("/:id/read", notificationHandler.MarkNotificationRead)
	}
}

// SetupWebSocketRoutes exposes the live dashboard socket.
func SetupWebSocketRoutes(r *gin.RouterGroup, wsHandler *websocket.Handler) {
	r.GET("/ws", wsHandler.HandleWebSocket)
}
