package interfaces

import (
	"context"

	"medidispatch/internal/models"
	"medidispatch/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, emergency *models.Emergency) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Hospital views
	GetByHospitalID(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error)
	GetActiveByHospitalID(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error)

	// Status queries
	GetByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error)
	GetPendingByPriority(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error)
}
