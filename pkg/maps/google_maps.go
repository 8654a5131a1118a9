package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) GetRoute(ctx context.Context, request *RouteRequest) (*RouteResult, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", request.OriginLat, request.OriginLng),
		Destination: fmt.Sprintf("%f,%f", request.DestinationLat, request.DestinationLng),
		Mode:        maps.TravelModeDriving,
	}

	resp, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(resp) == 0 || len(resp[0].Legs) == 0 {
		return nil, fmt.Errorf("directions request returned no routes")
	}

	route := resp[0]
	leg := route.Legs[0]

	steps := make([]Step, len(leg.Steps))
	for i, step := range leg.Steps {
		steps[i] = Step{
			Instruction:     step.HTMLInstructions,
			DistanceMeters:  float64(step.Distance.Meters),
			DurationSeconds: int(step.Duration.Seconds()),
			StartLat:        step.StartLocation.Lat,
			StartLng:        step.StartLocation.Lng,
			EndLat:          step.EndLocation.Lat,
			EndLng:          step.EndLocation.Lng,
		}
	}

	return &RouteResult{
		EncodedPolyline: route.OverviewPolyline.Points,
		Steps:           steps,
		DistanceMeters:  float64(leg.Distance.Meters),
		DurationSeconds: int(leg.Duration.Seconds()),
	}, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("reverse geocoding returned no results")
	}

	return resp[0].FormattedAddress, nil
}
