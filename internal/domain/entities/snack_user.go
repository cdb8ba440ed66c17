package entities

import "github.com/snacktacular/backend/pkg/document"

// SnackUser is a read-only directory entry
type SnackUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SnackUserFromDocument hydrates a directory entry
func SnackUserFromDocument(id string, doc document.Document) *SnackUser {
	return &SnackUser{
		ID:          id,
		Email:       doc.String("email", ""),
		DisplayName: doc.String("displayName", ""),
	}
}

// Document projects the persisted fields. The ID is not included.
func (u *SnackUser) Document() document.Document {
	return document.Document{
		"email":       u.Email,
		"displayName": u.DisplayName,
	}
}
