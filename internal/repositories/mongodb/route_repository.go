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

type routeRepository struct {
	collection *mongo.Collection
}

func NewRouteRepository(db *mongo.Database) interfaces.RouteRepository {
	return &routeRepository{
		collection: db.Collection(utils.CollectionRoutes),
	}
}

// Basic CRUD operations
func (r *routeRepository) Create(ctx context.Context, route *models.Route) error {
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

	_, err := r.collection.InsertOne(ctx, route)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

func (r *routeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	var route models.Route
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("route")
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return &route, nil
}

func (r *routeRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("route")
	}

	return nil
}

// Lifecycle queries
func (r *routeRepository) GetActiveByEmergencyID(ctx context.Context, emergencyID primitive.ObjectID) (*models.Route, error) {
	var route models.Route
	err := r.collection.FindOne(ctx, bson.M{
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

func (r *routeRepository) GetByStatuses(ctx context.Context, hospitalID primitive.ObjectID, statuses []models.RouteStatus) ([]*models.Route, error) {
	filter := bson.M{
		"status": bson.M{"$in": statuses},
	}
	if !hospitalID.IsZero() {
		filter["hospital_id"] = hospitalID
	}

	return r.findRoutes(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *routeRepository) GetByAmbulanceID(ctx context.Context, ambulanceID primitive.ObjectID) ([]*models.Route, error) {
	filter := bson.M{"ambulance_id": ambulanceID}
	return r.findRoutes(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// Watch streams route mutations through a change stream. The returned channel
// closes when ctx is cancelled or the stream errors.
func (r *routeRepository) Watch(ctx context.Context) (<-chan interfaces.RouteChange, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": []string{"insert", "update", "replace"}},
		}}},
	}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open route change stream: %w", err)
	}

	changes := make(chan interfaces.RouteChange)

	go func() {
		defer close(changes)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event struct {
				OperationType string        `bson:"operationType"`
				FullDocument  *models.Route `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				continue
			}
			if event.FullDocument == nil {
				continue
			}

			select {
			case changes <- interfaces.RouteChange{
				OperationType: event.OperationType,
				FullDocument:  event.FullDocument,
			}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}

// Helper methods
func (r *routeRepository) findRoutes(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Route, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find routes: %w", err)
	}
	defer cursor.Close(ctx)

	var routes []*models.Route
	for cursor.Next(ctx) {
		var route models.Route
		if err := cursor.Decode(&route); err != nil {
			return nil, fmt.Errorf("failed to decode route: %w", err)
		}
		routes = append(routes, &route)
	}

	return routes, nil
}
