package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceStatus string

const (
	AmbulanceStatusAvailable   AmbulanceStatus = "available"
	AmbulanceStatusOnDuty      AmbulanceStatus = "on_duty"
	AmbulanceStatusMaintenance AmbulanceStatus = "maintenance"
	AmbulanceStatusOffline     AmbulanceStatus = "offline"
)

func ParseAmbulanceStatus(s string) (AmbulanceStatus, error) {
	switch status := AmbulanceStatus(s); status {
	case AmbulanceStatusAvailable, AmbulanceStatusOnDuty,
		AmbulanceStatusMaintenance, AmbulanceStatusOffline:
		return status, nil
	}
	return "", fmt.Errorf("unknown ambulance status %q", s)
}

type Ambulance struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	LicensePlate       string              `json:"license_plate" bson:"license_plate" validate:"required"`
	HospitalID         primitive.ObjectID  `json:"hospital_id" bson:"hospital_id" validate:"required"`
	Status             AmbulanceStatus     `json:"status" bson:"status"`
	CurrentDriverID    *primitive.ObjectID `json:"current_driver_id" bson:"current_driver_id"`
	Latitude           *float64            `json:"latitude" bson:"latitude"`
	Longitude          *float64            `json:"longitude" bson:"longitude"`
	LastLocationUpdate *time.Time          `json:"last_location_update" bson:"last_location_update"`
	IsActive           bool                `json:"is_active" bson:"is_active"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

func (a *Ambulance) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

func (a *Ambulance) HasDriver() bool {
	return a.CurrentDriverID != nil && !a.CurrentDriverID.IsZero()
}

// LocationStale reports whether the last known position is older than maxAge.
// Ambulances without any location report are always stale.
func (a *Ambulance) LocationStale(maxAge time.Duration) bool {
	if a.LastLocationUpdate == nil {
		return true
	}
	return time.Since(*a.LastLocationUpdate) > maxAge
}
