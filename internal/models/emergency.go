package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyPriority string
type EmergencyStatus string

const (
	PriorityLow      EmergencyPriority = "low"
	PriorityMedium   EmergencyPriority = "medium"
	PriorityHigh     EmergencyPriority = "high"
	PriorityCritical EmergencyPriority = "critical"

	EmergencyStatusPending   EmergencyStatus = "pending"
	EmergencyStatusAssigned  EmergencyStatus = "assigned"
	EmergencyStatusEnRoute   EmergencyStatus = "en_route"
	EmergencyStatusArrived   EmergencyStatus = "arrived"
	EmergencyStatusCompleted EmergencyStatus = "completed"
	EmergencyStatusCancelled EmergencyStatus = "cancelled"
)

var priorityRanks = map[EmergencyPriority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// ParseEmergencyPriority rejects unknown persisted values instead of
// defaulting, so data corruption surfaces as an error.
func ParseEmergencyPriority(s string) (EmergencyPriority, error) {
	p := EmergencyPriority(s)
	if _, ok := priorityRanks[p]; !ok {
		return "", fmt.Errorf("unknown emergency priority %q", s)
	}
	return p, nil
}

func ParseEmergencyStatus(s string) (EmergencyStatus, error) {
	switch status := EmergencyStatus(s); status {
	case EmergencyStatusPending, EmergencyStatusAssigned, EmergencyStatusEnRoute,
		EmergencyStatusArrived, EmergencyStatusCompleted, EmergencyStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("unknown emergency status %q", s)
}

func (p EmergencyPriority) Rank() int {
	return priorityRanks[p]
}

func (s EmergencyStatus) IsTerminal() bool {
	return s == EmergencyStatusCompleted || s == EmergencyStatusCancelled
}

// HasAssignment reports whether the status implies a bound ambulance.
func (s EmergencyStatus) HasAssignment() bool {
	return s == EmergencyStatusAssigned || s == EmergencyStatusEnRoute || s == EmergencyStatusArrived
}

type Emergency struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CallerName        string              `json:"caller_name" bson:"caller_name" validate:"required"`
	CallerPhone       string              `json:"caller_phone" bson:"caller_phone"`
	Description       string              `json:"description" bson:"description"`
	Priority          EmergencyPriority   `json:"priority" bson:"priority" validate:"required"`
	Status            EmergencyStatus     `json:"status" bson:"status"`
	PatientLat        float64             `json:"patient_lat" bson:"patient_lat" validate:"required"`
	PatientLng        float64             `json:"patient_lng" bson:"patient_lng" validate:"required"`
	PatientAddress    string              `json:"patient_address" bson:"patient_address"`
	HospitalID        primitive.ObjectID  `json:"hospital_id" bson:"hospital_id" validate:"required"`
	AssignedAmbulance *primitive.ObjectID `json:"assigned_ambulance_id" bson:"assigned_ambulance_id"`
	AssignedDriver    *primitive.ObjectID `json:"assigned_driver_id" bson:"assigned_driver_id"`
	AssignedAt        *time.Time          `json:"assigned_at" bson:"assigned_at"`
	EstimatedArrival  *time.Time          `json:"estimated_arrival" bson:"estimated_arrival"`
	ActualArrival     *time.Time          `json:"actual_arrival" bson:"actual_arrival"`
	RouteID           *primitive.ObjectID `json:"route_id" bson:"route_id"`

	// Distance/ETA computed by candidate selection, persisted for audit.
	DispatchDistanceMeters float64 `json:"dispatch_distance_meters" bson:"dispatch_distance_meters"`
	DispatchETAMinutes     int     `json:"dispatch_eta_minutes" bson:"dispatch_eta_minutes"`

	CancellationReason string    `json:"cancellation_reason" bson:"cancellation_reason"`
	CompletedBy        string    `json:"completed_by" bson:"completed_by"`
	CompletedByName    string    `json:"completed_by_name" bson:"completed_by_name"`
	CompletionNotes    string    `json:"completion_notes" bson:"completion_notes"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}
