package entities

import (
	"math"

	"github.com/snacktacular/backend/pkg/document"
)

// Spot is a reviewable venue
type Spot struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	AverageRating   float64 `json:"average_rating"`
	NumberOfReviews int     `json:"number_of_reviews"`
	PostingUserID   string  `json:"posting_user_id"`
}

// NewSpot returns an empty, unsaved spot
func NewSpot() *Spot {
	return &Spot{}
}

// SpotFromDocument hydrates a spot; missing or mistyped keys take their zero default
func SpotFromDocument(id string, doc document.Document) *Spot {
	return &Spot{
		ID:              id,
		Name:            doc.String("name", ""),
		Address:         doc.String("address", ""),
		Latitude:        doc.Float("latitude", 0),
		Longitude:       doc.Float("longitude", 0),
		AverageRating:   doc.Float("averageRating", 0),
		NumberOfReviews: doc.Int("numberOfReviews", 0),
		PostingUserID:   doc.String("postingUserID", ""),
	}
}

// Document projects the persisted fields. The ID is not included.
func (s *Spot) Document() document.Document {
	return document.Document{
		"name":            s.Name,
		"address":         s.Address,
		"latitude":        s.Latitude,
		"longitude":       s.Longitude,
		"averageRating":   s.AverageRating,
		"numberOfReviews": s.NumberOfReviews,
		"postingUserID":   s.PostingUserID,
	}
}

// IsNew reports whether the spot has never been persisted
func (s *Spot) IsNew() bool {
	return s.ID == ""
}

// Coordinate returns the spot's latitude and longitude
func (s *Spot) Coordinate() (float64, float64) {
	return s.Latitude, s.Longitude
}

// DistanceTo returns the great-circle distance in kilometers to a coordinate
func (s *Spot) DistanceTo(lat, lon float64) float64 {
	return HaversineKm(s.Latitude, s.Longitude, lat, lon)
}

// HaversineKm calculates the distance between two points in kilometers
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
