package interfaces

import (
	"context"

	"medidispatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tx exposes the repository operations available inside a single storage
// transaction. Reads made through a Tx observe the transaction's snapshot,
// which is what makes the double-booking re-checks in the dispatch service
// safe under concurrency.
type Tx interface {
	GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	UpdateEmergency(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	UpdateAmbulance(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error)
	GetActiveRouteForEmergency(ctx context.Context, emergencyID primitive.ObjectID) (*models.Route, error)
	CreateRoute(ctx context.Context, route *models.Route) error
	UpdateRoute(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TxRunner executes fn inside a transaction. fn may be retried on transient
// conflicts; it must be idempotent. A non-nil error from fn aborts the
// transaction and is returned unchanged.
type TxRunner interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
