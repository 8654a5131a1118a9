package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medidispatch/internal/models"
	"medidispatch/internal/repositories/interfaces"
	"medidispatch/internal/utils"
	"medidispatch/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type txRunner struct {
	db *database.MongoDB
}

func NewTxRunner(db *database.MongoDB) interfaces.TxRunner {
	return &txRunner{db: db}
}

// RunTransaction executes fn inside a mongo multi-document transaction. The
// driver retries transient aborts internally; conflicts that survive the
// retries surface as TRANSACTION_CONFLICT so handlers can tell callers to
// retry rather than reporting a server fault.
func (r *txRunner) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		tx := &mongoTx{db: r.db.Database}
		return nil, fn(sessCtx, tx)
	})
	if err == nil {
		return nil
	}

	if _, ok := utils.AsServiceError(err); ok {
		return err
	}
	if isTransientTxError(err) {
		return utils.NewTransactionConflictError(err)
	}

	return utils.NewInternalError("transaction failed", err)
}

func isTransientTxError(err error) bool {
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorLabel("TransientTransactionError") ||
			srvErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

// mongoTx routes repository operations through the session context it is
// called with, so every read observes the transaction snapshot.
type mongoTx struct {
	db *mongo.Database
}

func (t *mongoTx) GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	var emergency models.Emergency
	err := t.db.Collection(utils.CollectionEmergencies).FindOne(ctx, bson.M{"_id": id}).Decode(&emergency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("emergency")
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}
	return &emergency, nil
}

func (t *mongoTx) UpdateEmergency(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return t.updateOne(ctx, utils.CollectionEmergencies, "emergency", id, updates)
}

func (t *mongoTx) GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	var ambulance models.Ambulance
	err := t.db.Collection(utils.CollectionAmbulances).FindOne(ctx, bson.M{"_id": id}).Decode(&ambulance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("ambulance")
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}
	return &ambulance, nil
}

func (t *mongoTx) UpdateAmbulance(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return t.updateOne(ctx, utils.CollectionAmbulances, "ambulance", id, updates)
}

func (t *mongoTx) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	var route models.Route
	err := t.db.Collection(utils.CollectionRoutes).FindOne(ctx, bson.M{"_id": id}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("route")
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

func (t *mongoTx) GetActiveRouteForEmergency(ctx context.Context, emergencyID primitive.ObjectID) (*models.Route, error) {
	var route models.Route
	err := t.db.Collection(utils.CollectionRoutes).FindOne(ctx, bson.M{
		"emergency_id": emergencyID,
		"status":       bson.M{"$ne": models.RouteStatusCompleted},
	}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("route")
		}
		return nil, fmt.Errorf("failed to get active route for emergency: %w", err)
	}
	return &route, nil
}

func (t *mongoTx) CreateRoute(ctx context.Context, route *models.Route) error {
	route.ID = primitive.NewObjectID()
	route.CreatedAt = time.Now()
	route.UpdatedAt = time.Now()

	if route.Status == "" {
		route.Status = models.RouteStatusActive
	}
	if route.StatusUpdatedAt == nil {
		now := time.Now()
		route.StatusUpdatedAt = &now
	}

	_, err := t.db.Collection(utils.CollectionRoutes).InsertOne(ctx, route)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}
	return nil
}

func (t *mongoTx) UpdateRoute(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return t.updateOne(ctx, utils.CollectionRoutes, "route", id, updates)
}

func (t *mongoTx) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now()

	_, err := t.db.Collection(utils.CollectionAuditLogs).InsertOne(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (t *mongoTx) updateOne(ctx context.Context, collection, resource string, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := t.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError(resource)
	}
	return nil
}
