package interfaces

import (
	"context"

	"medidispatch/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	GetByEmergencyID(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.AuditLog, error)
	GetByAmbulanceID(ctx context.Context, ambulanceID primitive.ObjectID, limit int) ([]*models.AuditLog, error)
}
