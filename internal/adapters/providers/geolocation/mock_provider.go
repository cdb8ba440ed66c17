package geolocation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
)

// mockPlaces is a small fixed catalogue around Chestnut Hill and Boston
var mockPlaces = []*providers.Place{
	{ID: "mock-1", Name: "Eagle's Deli", Address: "1918 Beacon St, Brighton, MA", Coordinates: providers.Coordinates{Latitude: 42.3389, Longitude: -71.1520}},
	{ID: "mock-2", Name: "Flour Bakery", Address: "12 Farnsworth St, Boston, MA", Coordinates: providers.Coordinates{Latitude: 42.3514, Longitude: -71.0497}},
	{ID: "mock-3", Name: "Roggie's", Address: "356 Chestnut Hill Ave, Brighton, MA", Coordinates: providers.Coordinates{Latitude: 42.3389, Longitude: -71.1496}},
	{ID: "mock-4", Name: "Tasty Burger", Address: "1301 Boylston St, Boston, MA", Coordinates: providers.Coordinates{Latitude: 42.3466, Longitude: -71.0972}},
}

// MockGeolocationProvider implements a mock geolocation provider for development and tests
type MockGeolocationProvider struct{}

var _ providers.GeolocationProvider = (*MockGeolocationProvider)(nil)

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return &MockGeolocationProvider{}
}

// SearchPlaces matches query against the catalogue by name or address.
// Results are sorted by distance when near is given.
func (m *MockGeolocationProvider) SearchPlaces(ctx context.Context, query string, near *providers.Coordinates) ([]*providers.Place, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	results := []*providers.Place{}
	for _, place := range mockPlaces {
		if needle == "" || strings.Contains(strings.ToLower(place.Name), needle) || strings.Contains(strings.ToLower(place.Address), needle) {
			copied := *place
			results = append(results, &copied)
		}
	}

	if near != nil {
		distance := func(p *providers.Place) float64 {
			return entities.HaversineKm(near.Latitude, near.Longitude, p.Coordinates.Latitude, p.Coordinates.Longitude)
		}
		sort.SliceStable(results, func(i, j int) bool {
			return distance(results[i]) < distance(results[j])
		})
	}
	return results, nil
}

// Geocode resolves a catalogue address, falling back to Chestnut Hill
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	coords := providers.Coordinates{Latitude: 42.3355, Longitude: -71.1685}
	needle := strings.ToLower(address)
	for _, place := range mockPlaces {
		if needle != "" && strings.Contains(strings.ToLower(place.Address), needle) {
			coords = place.Coordinates
			break
		}
	}

	return &providers.GeocodedAddress{
		FormattedAddress: address,
		City:             "Boston",
		State:            "MA",
		Country:          "USA",
		Coordinates:      coords,
	}, nil
}

// ReverseGeocode converts coordinates to an address (mock implementation)
func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%f, %f", lat, lon),
		Street:           "140 Commonwealth Ave",
		City:             "Chestnut Hill",
		State:            "MA",
		ZipCode:          "02467",
		Country:          "USA",
		Coordinates: providers.Coordinates{
			Latitude:  lat,
			Longitude: lon,
		},
	}, nil
}

// CalculateDistance calculates the distance between two points using the Haversine formula
func (m *MockGeolocationProvider) CalculateDistance(ctx context.Context, from, to providers.Coordinates) (float64, error) {
	return entities.HaversineKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude), nil
}
