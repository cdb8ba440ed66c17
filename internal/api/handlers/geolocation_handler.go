package handlers

import (
	"net/http"
	"strings"

	"github.com/snacktacular/backend/internal/domain/providers"
)

// GeolocationHandler backs the spot editor's place lookup. Responses pass
// through the shared response cache.
type GeolocationHandler struct {
	provider providers.GeolocationProvider
}

func NewGeolocationHandler(provider providers.GeolocationProvider) *GeolocationHandler {
	return &GeolocationHandler{provider: provider}
}

// SearchPlaces handles GET /api/places/search?q=...[&lat=...&lon=...]
func (h *GeolocationHandler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	query, ok := requiredParam(w, r, "q")
	if !ok {
		return
	}
	near, ok := parseOrigin(w, r)
	if !ok {
		return
	}

	places, err := h.provider.SearchPlaces(r.Context(), query, near)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"places": places, "count": len(places)})
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address, ok := requiredParam(w, r, "address")
	if !ok {
		return
	}

	result, err := h.provider.Geocode(r.Context(), address)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"address":           address,
		"formatted_address": result.FormattedAddress,
		"lat":               result.Coordinates.Latitude,
		"lon":               result.Coordinates.Longitude,
	})
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lon=...
func (h *GeolocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	at, ok := parseOrigin(w, r)
	if !ok {
		return
	}
	if at == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lon parameters are required")
		return
	}

	address, err := h.provider.ReverseGeocode(r.Context(), at.Latitude, at.Longitude)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, address)
}

func requiredParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		respondWithError(w, http.StatusBadRequest, name+" parameter is required")
		return "", false
	}
	return v, true
}
