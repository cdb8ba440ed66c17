package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/snacktacular/backend/internal/domain/providers"
)

// parseOrigin reads optional lat/lon query parameters; both or neither.
// On a bad pair it writes a 400 and returns ok=false.
func parseOrigin(w http.ResponseWriter, r *http.Request) (*providers.Coordinates, bool) {
	coords, err := queryCoordinates(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return coords, true
}

func queryCoordinates(r *http.Request) (*providers.Coordinates, error) {
	q := r.URL.Query()
	rawLat, rawLon := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	switch {
	case rawLat == "" && rawLon == "":
		return nil, nil
	case rawLat == "" || rawLon == "":
		return nil, fmt.Errorf("lat and lon must be given together")
	}

	lat, err := boundedFloat("lat", rawLat, 90)
	if err != nil {
		return nil, err
	}
	lon, err := boundedFloat("lon", rawLon, 180)
	if err != nil {
		return nil, err
	}
	return &providers.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func boundedFloat(name, raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%s must be between %v and %v", name, -limit, limit)
	}
	return v, nil
}
