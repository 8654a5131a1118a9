package utils

import "time"

// Application constants
const (
	AppName    = "MediDispatch"
	AppVersion = "1.0.0"

	// Candidate selection
	DefaultCandidateLimit = 20
	HighPriorityWindow    = 2
	NormalPriorityWindow  = 3

	// Ambulance locations older than this are flagged stale in list views.
	LocationStaleAfter = 2 * time.Minute

	// Routing provider
	DefaultRouteTimeout = 10 * time.Second

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Actor placeholder used when a route completes with no officer on record.
	SystemActorID   = "system"
	SystemActorName = "System"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Collections
const (
	CollectionEmergencies   = "emergencies"
	CollectionAmbulances    = "ambulances"
	CollectionRoutes        = "routes"
	CollectionNotifications = "notifications"
	CollectionDeviceTokens  = "device_tokens"
	CollectionAuditLogs     = "audit_logs"
)
