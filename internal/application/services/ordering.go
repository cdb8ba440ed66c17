package services

import (
	"sort"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// SpotOrder selects how spot lists are sorted
type SpotOrder string

const (
	SpotOrderName     SpotOrder = "name"
	SpotOrderRating   SpotOrder = "rating"
	SpotOrderDistance SpotOrder = "distance"
)

// ParseSpotOrder maps a query value onto a SpotOrder. Empty means name.
func ParseSpotOrder(value string) (SpotOrder, error) {
	switch SpotOrder(strings.ToLower(strings.TrimSpace(value))) {
	case "", SpotOrderName:
		return SpotOrderName, nil
	case SpotOrderRating:
		return SpotOrderRating, nil
	case SpotOrderDistance:
		return SpotOrderDistance, nil
	default:
		return "", apperrors.NewValidationError("unknown sort order: " + value)
	}
}

// SpotLess returns the comparison for order. Distance ordering needs origin.
func SpotLess(order SpotOrder, origin *providers.Coordinates) (func(a, b *entities.Spot) bool, error) {
	switch order {
	case "", SpotOrderName:
		return func(a, b *entities.Spot) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}, nil
	case SpotOrderRating:
		return func(a, b *entities.Spot) bool {
			return a.AverageRating > b.AverageRating
		}, nil
	case SpotOrderDistance:
		if origin == nil {
			return nil, apperrors.NewValidationError("distance ordering requires lat and lon")
		}
		return func(a, b *entities.Spot) bool {
			return a.DistanceTo(origin.Latitude, origin.Longitude) < b.DistanceTo(origin.Latitude, origin.Longitude)
		}, nil
	default:
		return nil, apperrors.NewValidationError("unknown sort order: " + string(order))
	}
}

// SortSpots orders spots in place; ties keep their incoming order
func SortSpots(spots []*entities.Spot, order SpotOrder, origin *providers.Coordinates) error {
	less, err := SpotLess(order, origin)
	if err != nil {
		return err
	}
	sort.SliceStable(spots, func(i, j int) bool {
		return less(spots[i], spots[j])
	})
	return nil
}

// SortReviewsNewestFirst orders reviews by date, most recent first
func SortReviewsNewestFirst(reviews []*entities.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Date.After(reviews[j].Date)
	})
}

// SortPhotosNewestFirst orders photos by date, most recent first
func SortPhotosNewestFirst(photos []*entities.Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].Date.After(photos[j].Date)
	})
}
