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

type ambulanceRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewAmbulanceRepository(db *mongo.Database, cache CacheService) interfaces.AmbulanceRepository {
	return &ambulanceRepository{
		collection: db.Collection(utils.CollectionAmbulances),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *ambulanceRepository) Create(ctx context.Context, ambulance *models.Ambulance) error {
	ambulance.ID = primitive.NewObjectID()
	ambulance.CreatedAt = time.Now()
	ambulance.UpdatedAt = time.Now()

	if ambulance.Status == "" {
		ambulance.Status = models.AmbulanceStatusOffline
	}

	_, err := r.collection.InsertOne(ctx, ambulance)
	if err != nil {
		return fmt.Errorf("failed to create ambulance: %w", err)
	}

	return nil
}

func (r *ambulanceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	if ambulance := r.getAmbulanceFromCache(ctx, id.Hex()); ambulance != nil {
		return ambulance, nil
	}

	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ambulance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("ambulance")
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}

	r.cacheAmbulance(ctx, &ambulance)

	return &ambulance, nil
}

func (r *ambulanceRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update ambulance: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("ambulance")
	}

	r.invalidateAmbulanceCache(ctx, id.Hex())

	return nil
}

// Fleet queries
func (r *ambulanceRepository) GetByHospitalID(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Ambulance, error) {
	filter := bson.M{
		"hospital_id": hospitalID,
		"is_active":   true,
	}

	return r.findAmbulances(ctx, filter, options.Find().SetSort(bson.D{{Key: "license_plate", Value: 1}}))
}

func (r *ambulanceRepository) GetAvailableByHospitalID(ctx context.Context, hospitalID primitive.ObjectID, limit int) ([]*models.Ambulance, error) {
	filter := bson.M{
		"hospital_id": hospitalID,
		"status":      models.AmbulanceStatusAvailable,
		"is_active":   true,
	}

	opts := options.Find().SetSort(bson.D{{Key: "last_location_update", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	return r.findAmbulances(ctx, filter, opts)
}

// Location tracking
func (r *ambulanceRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64, at time.Time) error {
	return r.Update(ctx, id, map[string]interface{}{
		"latitude":             lat,
		"longitude":            lng,
		"last_location_update": at,
	})
}

// Helper methods
func (r *ambulanceRepository) findAmbulances(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Ambulance, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ambulances: %w", err)
	}
	defer cursor.Close(ctx)

	var ambulances []*models.Ambulance
	for cursor.Next(ctx) {
		var ambulance models.Ambulance
		if err := cursor.Decode(&ambulance); err != nil {
			return nil, fmt.Errorf("failed to decode ambulance: %w", err)
		}
		ambulances = append(ambulances, &ambulance)
	}

	return ambulances, nil
}

// Cache operations
func (r *ambulanceRepository) cacheAmbulance(ctx context.Context, ambulance *models.Ambulance) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("ambulance:%s", ambulance.ID.Hex())
		r.cache.Set(ctx, cacheKey, ambulance, 30*time.Second)
	}
}

func (r *ambulanceRepository) getAmbulanceFromCache(ctx context.Context, ambulanceID string) *models.Ambulance {
	if r.cache == nil {
		return nil
	}

	cacheKey := fmt.Sprintf("ambulance:%s", ambulanceID)
	var ambulance models.Ambulance
	if err := r.cache.Get(ctx, cacheKey, &ambulance); err != nil {
		return nil
	}

	return &ambulance
}

func (r *ambulanceRepository) invalidateAmbulanceCache(ctx context.Context, ambulanceID string) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("ambulance:%s", ambulanceID)
		r.cache.Delete(ctx, cacheKey)
	}
}
