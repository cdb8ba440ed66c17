package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/snacktacular/backend/internal/api/middleware"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/domain/entities"
)

// SpotHandler handles spot-related HTTP requests
type SpotHandler struct {
	spots SpotService
}

// NewSpotHandler creates a new spot handler
func NewSpotHandler(spots SpotService) *SpotHandler {
	return &SpotHandler{spots: spots}
}

type spotRequest struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (req spotRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return "coordinates are out of range"
	}
	return ""
}

// ListSpots handles GET /api/spots?sort=name|rating|distance&lat=&lon=
func (h *SpotHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	order, err := services.ParseSpotOrder(r.URL.Query().Get("sort"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	origin, ok := parseOrigin(w, r)
	if !ok {
		return
	}

	spots, err := h.spots.List(r.Context(), order, origin)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"spots": spots,
		"count": len(spots),
	})
}

// SearchSpots handles GET /api/spots/search?q=&limit=
func (h *SpotHandler) SearchSpots(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	spots, err := h.spots.Search(r.Context(), query, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"spots": spots,
		"count": len(spots),
	})
}

// GetSpot handles GET /api/spots/{id}
func (h *SpotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	spot, err := h.spots.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, spot)
}

// CreateSpot handles POST /api/spots
func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req spotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	spot := entities.NewSpot()
	req.applyTo(spot)
	if err := h.spots.Save(r.Context(), principal, spot); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, spot)
}

// UpdateSpot handles PUT /api/spots/{id}
func (h *SpotHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req spotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	spot := &entities.Spot{ID: r.PathValue("id")}
	req.applyTo(spot)
	if err := h.spots.Save(r.Context(), principal, spot); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, spot)
}

// DeleteSpot handles DELETE /api/spots/{id}
func (h *SpotHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := h.spots.Delete(r.Context(), principal, &entities.Spot{ID: r.PathValue("id")}); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req spotRequest) applyTo(spot *entities.Spot) {
	spot.Name = strings.TrimSpace(req.Name)
	spot.Address = strings.TrimSpace(req.Address)
	spot.Latitude = req.Latitude
	spot.Longitude = req.Longitude
}

// requirePrincipal rejects the request unless it carries an identity
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*entities.Principal, bool) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		respondWithError(w, http.StatusUnauthorized, "sign in required")
		return nil, false
	}
	return principal, true
}
