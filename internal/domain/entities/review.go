package entities

import (
	"time"

	"github.com/snacktacular/backend/pkg/document"
)

// Review is a rated, authored comment attached to a spot
type Review struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	Rating          int       `json:"rating"`
	ReviewUserID    string    `json:"review_user_id"`
	ReviewUserEmail string    `json:"review_user_email"`
	Date            time.Time `json:"date"`
}

// NewReview returns an unsaved review authored by p and dated now
func NewReview(p *Principal) *Review {
	userID, email := authorOf(p)
	return &Review{
		ReviewUserID:    userID,
		ReviewUserEmail: email,
		Date:            document.Now(),
	}
}

// ReviewFromDocument hydrates a review; missing or mistyped keys take their zero default
func ReviewFromDocument(id string, doc document.Document) *Review {
	return &Review{
		ID:              id,
		Title:           doc.String("title", ""),
		Text:            doc.String("text", ""),
		Rating:          doc.Int("rating", 0),
		ReviewUserID:    doc.String("reviewUserID", ""),
		ReviewUserEmail: doc.String("reviewUserEmail", ""),
		Date:            doc.Time("date", time.Unix(0, 0).UTC()),
	}
}

// Document projects the persisted fields. The ID is not included.
func (r *Review) Document() document.Document {
	return document.Document{
		"title":           r.Title,
		"text":            r.Text,
		"rating":          r.Rating,
		"reviewUserID":    r.ReviewUserID,
		"reviewUserEmail": r.ReviewUserEmail,
		"date":            document.FromTime(r.Date),
	}
}

// IsNew reports whether the review has never been persisted
func (r *Review) IsNew() bool {
	return r.ID == ""
}
