package providers

import (
	"context"
)

// GeolocationProvider resolves free-text or coordinate queries to places
type GeolocationProvider interface {
	// SearchPlaces finds places matching a free-text query, biased toward near when given
	SearchPlaces(ctx context.Context, query string, near *Coordinates) ([]*Place, error)

	// Geocode converts an address to a geocoded address
	Geocode(ctx context.Context, address string) (*GeocodedAddress, error)

	// ReverseGeocode converts coordinates to an address
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodedAddress, error)

	// CalculateDistance calculates the distance between two points in kilometers
	CalculateDistance(ctx context.Context, from, to Coordinates) (float64, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodedAddress represents a geocoded address
type GeocodedAddress struct {
	FormattedAddress string      `json:"formatted_address"`
	Street           string      `json:"street,omitempty"`
	City             string      `json:"city,omitempty"`
	State            string      `json:"state,omitempty"`
	ZipCode          string      `json:"zip_code,omitempty"`
	Country          string      `json:"country,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
}

// Place is a named location: what a spot is created from
type Place struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}
