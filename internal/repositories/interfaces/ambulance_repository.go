package interfaces

import (
	"context"
	"time"

	"medidispatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, ambulance *models.Ambulance) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Fleet queries
	GetByHospitalID(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Ambulance, error)
	GetAvailableByHospitalID(ctx context.Context, hospitalID primitive.ObjectID, limit int) ([]*models.Ambulance, error)

	// Location tracking
	UpdateLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64, at time.Time) error
}
