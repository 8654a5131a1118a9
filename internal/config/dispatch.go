package config

import (
	"time"

	"medidispatch/internal/utils"
)

type DispatchConfig struct {
	// RouteTimeout bounds the routing-provider call after an assignment
	// commits. On timeout the assignment stands without a route.
	RouteTimeout time.Duration `yaml:"route_timeout"`

	CandidateLimit     int           `yaml:"candidate_limit"`
	LocationStaleAfter time.Duration `yaml:"location_stale_after"`
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		RouteTimeout:       getEnvAsDuration("DISPATCH_ROUTE_TIMEOUT", utils.DefaultRouteTimeout),
		CandidateLimit:     getEnvAsInt("DISPATCH_CANDIDATE_LIMIT", utils.DefaultCandidateLimit),
		LocationStaleAfter: getEnvAsDuration("DISPATCH_LOCATION_STALE_AFTER", utils.LocationStaleAfter),
	}
}
