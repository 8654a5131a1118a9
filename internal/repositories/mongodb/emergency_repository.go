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

type emergencyRepository struct {
	collection *mongo.Collection
}

func NewEmergencyRepository(db *mongo.Database) interfaces.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection(utils.CollectionEmergencies),
	}
}

// Basic CRUD operations
func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	emergency.ID = primitive.NewObjectID()
	emergency.CreatedAt = time.Now()
	emergency.UpdatedAt = time.Now()

	if emergency.Status == "" {
		emergency.Status = models.EmergencyStatusPending
	}

	_, err := r.collection.InsertOne(ctx, emergency)
	if err != nil {
		return fmt.Errorf("failed to create emergency: %w", err)
	}

	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	var emergency models.Emergency
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&emergency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFoundError("emergency")
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}

	return &emergency, nil
}

func (r *emergencyRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("emergency")
	}

	return nil
}

// Hospital views
func (r *emergencyRepository) GetByHospitalID(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	filter := bson.M{"hospital_id": hospitalID}
	return r.findEmergenciesWithFilter(ctx, filter, params)
}

func (r *emergencyRepository) GetActiveByHospitalID(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error) {
	filter := bson.M{
		"hospital_id": hospitalID,
		"status": bson.M{"$in": []models.EmergencyStatus{
			models.EmergencyStatusPending,
			models.EmergencyStatusAssigned,
			models.EmergencyStatusEnRoute,
			models.EmergencyStatusArrived,
		}},
	}

	return r.findEmergencies(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// Status queries
func (r *emergencyRepository) GetByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	filter := bson.M{"status": status}
	return r.findEmergenciesWithFilter(ctx, filter, params)
}

func (r *emergencyRepository) GetPendingByPriority(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error) {
	filter := bson.M{
		"hospital_id": hospitalID,
		"status":      models.EmergencyStatusPending,
	}

	// critical > high > medium > low, oldest first within a tier. Priority is
	// stored as a string, so order by created_at here and let the caller rank.
	emergencies, err := r.findEmergencies(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}

	sortEmergenciesByPriority(emergencies)
	return emergencies, nil
}

func sortEmergenciesByPriority(emergencies []*models.Emergency) {
	for i := 1; i < len(emergencies); i++ {
		for j := i; j > 0 && emergencies[j].Priority.Rank() > emergencies[j-1].Priority.Rank(); j-- {
			emergencies[j], emergencies[j-1] = emergencies[j-1], emergencies[j]
		}
	}
}

// Helper methods
func (r *emergencyRepository) findEmergenciesWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	if params.Search != "" {
		searchFields := []string{"caller_name", "description", "patient_address"}
		filter = bson.M{
			"$and": []bson.M{
				filter,
				params.GetSearchFilter(searchFields),
			},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emergencies: %w", err)
	}

	emergencies, err := r.findEmergencies(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, err
	}

	return emergencies, total, nil
}

func (r *emergencyRepository) findEmergencies(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Emergency, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	for cursor.Next(ctx) {
		var emergency models.Emergency
		if err := cursor.Decode(&emergency); err != nil {
			return nil, fmt.Errorf("failed to decode emergency: %w", err)
		}
		emergencies = append(emergencies, &emergency)
	}

	return emergencies, nil
}
