package interfaces

import (
	"context"

	"medidispatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RouteChange is one route mutation observed by Watch. FullDocument is the
// post-update state of the route.
type RouteChange struct {
	OperationType string
	FullDocument  *models.Route
}

type RouteRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, route *models.Route) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Route, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Lifecycle queries
	GetActiveByEmergencyID(ctx context.Context, emergencyID primitive.ObjectID) (*models.Route, error)
	GetByStatuses(ctx context.Context, hospitalID primitive.ObjectID, statuses []models.RouteStatus) ([]*models.Route, error)
	GetByAmbulanceID(ctx context.Context, ambulanceID primitive.ObjectID) ([]*models.Route, error)

	// Watch streams route mutations until ctx is cancelled. Used by the
	// completion reconciler to react to routes marked completed.
	Watch(ctx context.Context) (<-chan RouteChange, error)
}
