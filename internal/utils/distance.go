package utils

import (
	"math"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine
	// formula. Tests depend on this exact value.
	EarthRadiusMeters = 6371000.0

	// AverageSpeedMetersPerSecond is the assumed ambulance travel speed
	// (60 km/h) used for ETA estimates.
	AverageSpeedMetersPerSecond = 16.67

	MinETAMinutes = 2
	MaxETAMinutes = 60
)

// CalculateDistanceMeters returns the great-circle distance between two
// coordinates in meters.
func CalculateDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineDistance(lat1, lon1, lat2, lon2)
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// EstimateETAMinutes converts a straight-line distance into a travel-time
// estimate, rounded to the nearest minute and clamped to [2, 60].
func EstimateETAMinutes(distanceMeters float64) int {
	minutes := int(math.Round(distanceMeters / (AverageSpeedMetersPerSecond * 60)))
	if minutes < MinETAMinutes {
		return MinETAMinutes
	}
	if minutes > MaxETAMinutes {
		return MaxETAMinutes
	}
	return minutes
}

// IsWithinRadius reports whether a point lies within radiusMeters of a center.
func IsWithinRadius(centerLat, centerLon, pointLat, pointLon, radiusMeters float64) bool {
	return CalculateDistanceMeters(centerLat, centerLon, pointLat, pointLon) <= radiusMeters
}
