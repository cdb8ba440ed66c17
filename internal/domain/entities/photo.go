package entities

import (
	"time"

	"github.com/snacktacular/backend/pkg/document"
)

// DefaultPhotoContentType is used when an upload does not declare one
const DefaultPhotoContentType = "image/jpeg"

// Photo is an authored image attached to a spot. Image and ContentType
// travel to the blob store only; the document carries PhotoURL.
type Photo struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	PhotoUserID    string    `json:"photo_user_id"`
	PhotoUserEmail string    `json:"photo_user_email"`
	Date           time.Time `json:"date"`
	PhotoURL       string    `json:"photo_url"`

	Image       []byte `json:"-"`
	ContentType string `json:"-"`
}

// NewPhoto returns an unsaved photo authored by p and dated now
func NewPhoto(p *Principal) *Photo {
	userID, email := authorOf(p)
	return &Photo{
		PhotoUserID:    userID,
		PhotoUserEmail: email,
		Date:           document.Now(),
		ContentType:    DefaultPhotoContentType,
	}
}

// PhotoFromDocument hydrates a photo; missing or mistyped keys take their zero default
func PhotoFromDocument(id string, doc document.Document) *Photo {
	return &Photo{
		ID:             id,
		Description:    doc.String("description", ""),
		PhotoUserID:    doc.String("photoUserID", ""),
		PhotoUserEmail: doc.String("photoUserEmail", ""),
		Date:           doc.Time("date", time.Unix(0, 0).UTC()),
		PhotoURL:       doc.String("photoURL", ""),
	}
}

// Document projects the persisted fields. The ID and image bytes are not included.
func (p *Photo) Document() document.Document {
	return document.Document{
		"description":    p.Description,
		"photoUserID":    p.PhotoUserID,
		"photoUserEmail": p.PhotoUserEmail,
		"date":           document.FromTime(p.Date),
		"photoURL":       p.PhotoURL,
	}
}

// IsNew reports whether the photo has never been persisted
func (p *Photo) IsNew() bool {
	return p.ID == ""
}
