package maps

import "context"

// RouteProvider computes driving directions between two coordinates. The
// dispatch engine treats it as best-effort: a failed call degrades the
// feature, never the assignment.
type RouteProvider interface {
	GetRoute(ctx context.Context, request *RouteRequest) (*RouteResult, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

type RouteRequest struct {
	OriginLat      float64 `json:"origin_lat"`
	OriginLng      float64 `json:"origin_lng"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLng float64 `json:"destination_lng"`
}

type RouteResult struct {
	EncodedPolyline string  `json:"encoded_polyline"`
	Steps           []Step  `json:"steps"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
}

type Step struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	StartLat        float64 `json:"start_lat"`
	StartLng        float64 `json:"start_lng"`
	EndLat          float64 `json:"end_lat"`
	EndLng          float64 `json:"end_lng"`
}
