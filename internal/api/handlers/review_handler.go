package handlers

import (
	"net/http"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
)

const (
	minRating = 1
	maxRating = 5
)

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	spots   SpotService
	reviews ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(spots SpotService, reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{
		spots:   spots,
		reviews: reviews,
	}
}

type reviewRequest struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// reviewResponse carries the spot so clients see the refreshed rating
type reviewResponse struct {
	Review *entities.Review `json:"review"`
	Spot   *entities.Spot   `json:"spot"`
}

// ListReviews handles GET /api/spots/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.List(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// CreateReview handles POST /api/spots/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}

	spot, err := h.spots.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review := entities.NewReview(principal)
	review.Title = req.Title
	review.Text = req.Text
	review.Rating = req.Rating
	if err := h.reviews.Save(r.Context(), principal, spot, review); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, reviewResponse{Review: review, Spot: spot})
}

// UpdateReview handles PUT /api/spots/{id}/reviews/{reviewId}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}

	spot, err := h.spots.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review := &entities.Review{
		ID:     r.PathValue("reviewId"),
		Title:  req.Title,
		Text:   req.Text,
		Rating: req.Rating,
	}
	if err := h.reviews.Save(r.Context(), principal, spot, review); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reviewResponse{Review: review, Spot: spot})
}

// DeleteReview handles DELETE /api/spots/{id}/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	spot, err := h.spots.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review := &entities.Review{ID: r.PathValue("reviewId")}
	if err := h.reviews.Delete(r.Context(), principal, spot, review); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"spot": spot})
}

func decodeReview(w http.ResponseWriter, r *http.Request) (reviewRequest, bool) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Rating < minRating || req.Rating > maxRating {
		respondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return req, false
	}
	return req, true
}
