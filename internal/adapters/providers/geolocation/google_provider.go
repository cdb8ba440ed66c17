package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

const (
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	googlePlacesTextURL    = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	defaultGeocodeCacheTTL = 30 * 24 * time.Hour
	defaultPlacesCacheTTL  = 24 * time.Hour
	defaultHTTPTimeout     = 8 * time.Second
	placesBiasRadiusMeters = 5000
)

// GoogleGeolocationProvider implements the GeolocationProvider using Google Maps APIs.
type GoogleGeolocationProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	geocodeURL string
	placesURL  string
}

var _ providers.GeolocationProvider = (*GoogleGeolocationProvider)(nil)

// NewGoogleGeolocationProvider creates a new Google geolocation provider. cache may be nil.
func NewGoogleGeolocationProvider(apiKey string, cache providers.CacheProvider) *GoogleGeolocationProvider {
	return NewGoogleGeolocationProviderWithOptions(apiKey, cache, googleGeocodeURL, googlePlacesTextURL, nil)
}

// NewGoogleGeolocationProviderWithOptions allows overriding endpoints and HTTP client (used for tests).
func NewGoogleGeolocationProviderWithOptions(apiKey string, cache providers.CacheProvider, geocodeURL, placesURL string, httpClient *http.Client) *GoogleGeolocationProvider {
	if strings.TrimSpace(geocodeURL) == "" {
		geocodeURL = googleGeocodeURL
	}
	if strings.TrimSpace(placesURL) == "" {
		placesURL = googlePlacesTextURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleGeolocationProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		geocodeURL: geocodeURL,
		placesURL:  placesURL,
	}
}

// SearchPlaces runs a Places text search, biased toward near when given.
func (g *GoogleGeolocationProvider) SearchPlaces(ctx context.Context, query string, near *providers.Coordinates) ([]*providers.Place, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	params := url.Values{"query": []string{trimmed}}
	cacheSeed := strings.ToLower(trimmed)
	if near != nil {
		params.Set("location", fmt.Sprintf("%f,%f", near.Latitude, near.Longitude))
		params.Set("radius", fmt.Sprint(placesBiasRadiusMeters))
		cacheSeed += fmt.Sprintf("@%.3f,%.3f", near.Latitude, near.Longitude)
	}

	cacheKey := "geo:places:" + hashKey(cacheSeed)
	var places []*providers.Place
	if g.cachedJSON(ctx, cacheKey, &places) {
		return places, nil
	}

	var resp googlePlacesTextSearchResponse
	if err := g.get(ctx, g.placesURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "ZERO_RESULTS" {
		return []*providers.Place{}, nil
	}
	if err := statusError("places text search", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	places = make([]*providers.Place, 0, len(resp.Results))
	for _, result := range resp.Results {
		places = append(places, &providers.Place{
			ID:      result.PlaceID,
			Name:    result.Name,
			Address: result.FormattedAddress,
			Coordinates: providers.Coordinates{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
		})
	}

	g.storeJSON(ctx, cacheKey, places, defaultPlacesCacheTTL)
	return places, nil
}

// Geocode converts an address to a full geocoded address.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("address is required")
	}

	cacheKey := "geo:geocode:" + hashKey(strings.ToLower(trimmed))
	return g.geocode(ctx, cacheKey, url.Values{"address": []string{trimmed}})
}

// ReverseGeocode converts coordinates to an address.
func (g *GoogleGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	cacheKey := "geo:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", lat, lon))
	return g.geocode(ctx, cacheKey, url.Values{"latlng": []string{fmt.Sprintf("%f,%f", lat, lon)}})
}

// CalculateDistance calculates the distance between two points using the Haversine formula.
func (g *GoogleGeolocationProvider) CalculateDistance(ctx context.Context, from, to providers.Coordinates) (float64, error) {
	return entities.HaversineKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude), nil
}

func (g *GoogleGeolocationProvider) geocode(ctx context.Context, cacheKey string, params url.Values) (*providers.GeocodedAddress, error) {
	var address providers.GeocodedAddress
	if g.cachedJSON(ctx, cacheKey, &address) {
		return &address, nil
	}

	var resp googleGeocodeResponse
	if err := g.get(ctx, g.geocodeURL, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "ZERO_RESULTS" || (resp.Status == "OK" && len(resp.Results) == 0) {
		return nil, apperrors.NewNotFoundError("no geocoding results")
	}
	if err := statusError("geocode", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	result := resp.Results[0]
	address = providers.GeocodedAddress{
		FormattedAddress: result.FormattedAddress,
		Street:           buildStreet(result.AddressComponents),
		City:             component(result.AddressComponents, "locality", "administrative_area_level_2"),
		State:            component(result.AddressComponents, "administrative_area_level_1"),
		ZipCode:          component(result.AddressComponents, "postal_code"),
		Country:          component(result.AddressComponents, "country"),
		Coordinates: providers.Coordinates{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
	}

	g.storeJSON(ctx, cacheKey, address, defaultGeocodeCacheTTL)
	return &address, nil
}

func (g *GoogleGeolocationProvider) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if g.apiKey == "" {
		return apperrors.NewExternalError("google maps api key is required", nil)
	}

	params.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build maps request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("maps request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewExternalError(fmt.Sprintf("maps request returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("failed to decode maps response", err)
	}
	return nil
}

func (g *GoogleGeolocationProvider) cachedJSON(ctx context.Context, key string, out interface{}) bool {
	if g.cache == nil {
		return false
	}
	cached, err := g.cache.Get(ctx, key)
	if err != nil || len(cached) == 0 {
		return false
	}
	return json.Unmarshal(cached, out) == nil
}

func (g *GoogleGeolocationProvider) storeJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if g.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, payload, ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Failed to cache maps response")
	}
}

func statusError(operation, status, message string) error {
	if status == "OK" {
		return nil
	}
	if message != "" {
		return apperrors.NewExternalError(fmt.Sprintf("%s failed: %s - %s", operation, status, message), nil)
	}
	return apperrors.NewExternalError(fmt.Sprintf("%s failed: %s", operation, status), nil)
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func component(components []googleAddressComponent, primary string, fallback ...string) string {
	for _, name := range append([]string{primary}, fallback...) {
		for _, comp := range components {
			if containsType(comp.Types, name) {
				return comp.LongName
			}
		}
	}
	return ""
}

func buildStreet(components []googleAddressComponent) string {
	streetNumber := component(components, "street_number")
	route := component(components, "route")
	if streetNumber != "" && route != "" {
		return streetNumber + " " + route
	}
	if route != "" {
		return route
	}
	return streetNumber
}

func containsType(types []string, target string) bool {
	for _, t := range types {
		if t == target {
			return true
		}
	}
	return false
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
	Geometry          googleGeometry           `json:"geometry"`
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googlePlacesTextSearchResponse struct {
	Status       string                         `json:"status"`
	ErrorMessage string                         `json:"error_message,omitempty"`
	Results      []googlePlacesTextSearchResult `json:"results"`
}

type googlePlacesTextSearchResult struct {
	FormattedAddress string         `json:"formatted_address"`
	PlaceID          string         `json:"place_id"`
	Name             string         `json:"name"`
	Geometry         googleGeometry `json:"geometry"`
}
