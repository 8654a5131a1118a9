package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionAssign   AuditAction = "assign"
	AuditActionCancel   AuditAction = "cancel"
	AuditActionComplete AuditAction = "complete"
)

type AuditLog struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Action      AuditAction         `json:"action" bson:"action"`
	EmergencyID primitive.ObjectID  `json:"emergency_id" bson:"emergency_id"`
	AmbulanceID primitive.ObjectID  `json:"ambulance_id" bson:"ambulance_id"`
	DriverID    *primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	ActorID     string              `json:"actor_id" bson:"actor_id"`
	ActorName   string              `json:"actor_name" bson:"actor_name"`
	Source      string              `json:"source" bson:"source"` // driver, hospital, system
	Notes       string              `json:"notes" bson:"notes"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}
