// Package matching ranks available ambulances against a patient location and
// applies the priority-aware selection policy. It holds no state and performs
// no I/O; callers load candidates and persist the outcome.
package matching

import (
	"errors"
	"sort"

	"medidispatch/internal/models"
	"medidispatch/internal/utils"
)

// ErrNoCandidates is returned when no ambulance survives filtering. Callers
// translate it into their own error taxonomy.
var ErrNoCandidates = errors.New("no ambulance candidates with a location and driver")

type Candidate struct {
	Ambulance      *models.Ambulance `json:"ambulance"`
	DistanceMeters float64           `json:"distance_meters"`
	ETAMinutes     int               `json:"eta_minutes"`
}

// Rank filters out ambulances without coordinates or a bound driver and
// returns the rest ordered by distance to the patient, nearest first.
func Rank(patientLat, patientLng float64, ambulances []*models.Ambulance) []Candidate {
	candidates := make([]Candidate, 0, len(ambulances))
	for _, amb := range ambulances {
		if !amb.HasLocation() || !amb.HasDriver() {
			continue
		}
		distance := utils.CalculateDistanceMeters(patientLat, patientLng, *amb.Latitude, *amb.Longitude)
		candidates = append(candidates, Candidate{
			Ambulance:      amb,
			DistanceMeters: distance,
			ETAMinutes:     utils.EstimateETAMinutes(distance),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})

	return candidates
}

// Select picks the candidate to dispatch for the given priority from an
// already ranked list. Critical emergencies always get the nearest unit;
// lower priorities choose within a small window of nearest units, which
// today still resolves to the nearest but leaves room for load balancing.
func Select(priority models.EmergencyPriority, ranked []Candidate) (*Candidate, error) {
	if len(ranked) == 0 {
		return nil, ErrNoCandidates
	}
	if len(ranked) == 1 {
		return &ranked[0], nil
	}

	window := windowForPriority(priority)
	if window > len(ranked) {
		window = len(ranked)
	}

	best := &ranked[0]
	for i := 1; i < window; i++ {
		if ranked[i].DistanceMeters < best.DistanceMeters {
			best = &ranked[i]
		}
	}
	return best, nil
}

func windowForPriority(priority models.EmergencyPriority) int {
	switch priority {
	case models.PriorityCritical:
		return 1
	case models.PriorityHigh:
		return utils.HighPriorityWindow
	default:
		return utils.NormalPriorityWindow
	}
}
