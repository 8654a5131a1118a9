package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RouteStatus string
type ActorRole string

const (
	RouteStatusActive    RouteStatus = "active"
	RouteStatusCleared   RouteStatus = "cleared"
	RouteStatusTimeout   RouteStatus = "timeout"
	RouteStatusCompleted RouteStatus = "completed"

	RoleHospital ActorRole = "hospital"
	RolePolice   ActorRole = "police"
	RoleDriver   ActorRole = "driver"
)

// routeTransitions is the full lifecycle table. completed is terminal.
var routeTransitions = map[RouteStatus][]RouteStatus{
	RouteStatusActive:    {RouteStatusCleared, RouteStatusTimeout},
	RouteStatusCleared:   {RouteStatusCompleted, RouteStatusTimeout},
	RouteStatusTimeout:   {RouteStatusActive, RouteStatusCompleted},
	RouteStatusCompleted: {},
}

func ParseRouteStatus(s string) (RouteStatus, error) {
	status := RouteStatus(s)
	if _, ok := routeTransitions[status]; !ok {
		return "", fmt.Errorf("unknown route status %q", s)
	}
	return status, nil
}

func (s RouteStatus) CanTransitionTo(next RouteStatus) bool {
	for _, allowed := range routeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RouteStatus) IsTerminal() bool {
	return s == RouteStatusCompleted
}

// Describe renders the status for a given viewer. Presentation only; the
// stored status is identical for every actor.
func (s RouteStatus) Describe(viewer ActorRole) string {
	switch viewer {
	case RolePolice:
		switch s {
		case RouteStatusActive:
			return "Clearance requested"
		case RouteStatusCleared:
			return "Traffic cleared"
		case RouteStatusTimeout:
			return "Clearance timed out"
		case RouteStatusCompleted:
			return "Completed"
		}
	case RoleHospital:
		switch s {
		case RouteStatusActive:
			return "Ambulance en route"
		case RouteStatusCleared:
			return "Road cleared"
		case RouteStatusTimeout:
			return "Awaiting re-clearance"
		case RouteStatusCompleted:
			return "Route completed"
		}
	default:
		switch s {
		case RouteStatusActive:
			return "En route"
		case RouteStatusCleared:
			return "Cleared"
		case RouteStatusTimeout:
			return "Timed out"
		case RouteStatusCompleted:
			return "Completed"
		}
	}
	return string(s)
}

// Derived status groups used by the hospital and police list views.
func RouteStatusesActiveForHospital() []RouteStatus {
	return []RouteStatus{RouteStatusActive, RouteStatusCleared}
}

func RouteStatusesPendingForPolice() []RouteStatus {
	return []RouteStatus{RouteStatusActive}
}

func RouteStatusesActiveForPolice() []RouteStatus {
	return []RouteStatus{RouteStatusCleared}
}

type Route struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AmbulanceID primitive.ObjectID `json:"ambulance_id" bson:"ambulance_id" validate:"required"`
	EmergencyID primitive.ObjectID `json:"emergency_id" bson:"emergency_id" validate:"required"`
	DriverID    primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`
	Status      RouteStatus        `json:"status" bson:"status"`

	// Inherited from the emergency so hospital and police queues can filter
	// without a join.
	HospitalID primitive.ObjectID `json:"hospital_id" bson:"hospital_id"`
	Priority   EmergencyPriority  `json:"priority" bson:"priority"`

	EncodedPolyline string      `json:"encoded_polyline" bson:"encoded_polyline"`
	Steps           []RouteStep `json:"steps" bson:"steps"`
	DistanceMeters  float64     `json:"distance_meters" bson:"distance_meters"`
	DurationSeconds int         `json:"duration_seconds" bson:"duration_seconds"`
	ETAMinutes      int         `json:"eta_minutes" bson:"eta_minutes"`

	OriginLat          float64 `json:"origin_lat" bson:"origin_lat"`
	OriginLng          float64 `json:"origin_lng" bson:"origin_lng"`
	OriginAddress      string  `json:"origin_address" bson:"origin_address"`
	DestinationLat     float64 `json:"destination_lat" bson:"destination_lat"`
	DestinationLng     float64 `json:"destination_lng" bson:"destination_lng"`
	DestinationAddress string  `json:"destination_address" bson:"destination_address"`

	PoliceOfficerID   string `json:"police_officer_id" bson:"police_officer_id"`
	PoliceOfficerName string `json:"police_officer_name" bson:"police_officer_name"`
	PoliceNotes       string `json:"police_notes" bson:"police_notes"`

	StatusUpdatedAt  *time.Time `json:"status_updated_at" bson:"status_updated_at"`
	ClearedAt        *time.Time `json:"cleared_at" bson:"cleared_at"`
	CompletedAt      *time.Time `json:"completed_at" bson:"completed_at"`
	CompletionReason string     `json:"completion_reason" bson:"completion_reason"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
}

type RouteStep struct {
	Instruction     string  `json:"instruction" bson:"instruction"`
	DistanceMeters  float64 `json:"distance_meters" bson:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds" bson:"duration_seconds"`
	StartLat        float64 `json:"start_lat" bson:"start_lat"`
	StartLng        float64 `json:"start_lng" bson:"start_lng"`
	EndLat          float64 `json:"end_lat" bson:"end_lat"`
	EndLng          float64 `json:"end_lng" bson:"end_lng"`
}
