package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// PhotoService handles photo business logic
type PhotoService struct {
	store providers.DocumentStore
	blobs providers.BlobStore
}

// NewPhotoService creates a new photo service
func NewPhotoService(store providers.DocumentStore, blobs providers.BlobStore) *PhotoService {
	return &PhotoService{
		store: store,
		blobs: blobs,
	}
}

// Save uploads the photo's image and writes its document. A new photo gets
// its id and URL only after both steps succeed.
func (s *PhotoService) Save(ctx context.Context, p *entities.Principal, spot *entities.Spot, photo *entities.Photo) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if spot == nil || spot.IsNew() {
		return apperrors.NewValidationError("spot id is required")
	}
	if photo == nil {
		return apperrors.NewValidationError("photo is required")
	}

	if photo.IsNew() {
		return s.create(ctx, p, spot, photo)
	}
	return s.update(ctx, p, spot, photo)
}

func (s *PhotoService) create(ctx context.Context, p *entities.Principal, spot *entities.Spot, photo *entities.Photo) error {
	if len(photo.Image) == 0 {
		return apperrors.NewValidationError("image is required")
	}

	photoID := uuid.NewString()
	url, err := s.blobs.Upload(ctx, spot.ID, photoID, photo.Image, contentTypeOf(photo))
	if err != nil {
		return err
	}

	doc := *photo
	if doc.PhotoUserID == "" {
		stamped := entities.NewPhoto(p)
		doc.PhotoUserID = stamped.PhotoUserID
		doc.PhotoUserEmail = stamped.PhotoUserEmail
	}
	if doc.Date.IsZero() {
		doc.Date = entities.NewPhoto(p).Date
	}
	doc.PhotoURL = url

	if err := s.store.Set(ctx, entities.PhotosCollection(spot.ID), photoID, doc.Document()); err != nil {
		if delErr := s.blobs.Delete(ctx, spot.ID, photoID); delErr != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(delErr).
				Str("spot_id", spot.ID).
				Str("photo_id", photoID).
				Msg("Failed to remove orphaned photo blob")
		}
		return err
	}

	*photo = doc
	photo.ID = photoID
	return nil
}

func (s *PhotoService) update(ctx context.Context, p *entities.Principal, spot *entities.Spot, photo *entities.Photo) error {
	collection := entities.PhotosCollection(spot.ID)
	snap, err := s.store.Get(ctx, collection, photo.ID)
	if err != nil {
		return err
	}
	existing := entities.PhotoFromDocument(snap.ID, snap.Data)
	if err := requireOwner(p, existing.PhotoUserID, "photo"); err != nil {
		return err
	}

	url := existing.PhotoURL
	if len(photo.Image) > 0 {
		url, err = s.blobs.Upload(ctx, spot.ID, photo.ID, photo.Image, contentTypeOf(photo))
		if err != nil {
			return err
		}
	}

	doc := *photo
	doc.PhotoUserID = existing.PhotoUserID
	doc.PhotoUserEmail = existing.PhotoUserEmail
	doc.Date = existing.Date
	doc.PhotoURL = url
	if err := s.store.Set(ctx, collection, photo.ID, doc.Document()); err != nil {
		return err
	}

	*photo = doc
	return nil
}

// Get retrieves one photo of a spot
func (s *PhotoService) Get(ctx context.Context, spotID, photoID string) (*entities.Photo, error) {
	if spotID == "" || photoID == "" {
		return nil, apperrors.NewValidationError("spot id and photo id are required")
	}
	snap, err := s.store.Get(ctx, entities.PhotosCollection(spotID), photoID)
	if err != nil {
		return nil, err
	}
	return entities.PhotoFromDocument(snap.ID, snap.Data), nil
}

// List returns the photos of a spot, newest first
func (s *PhotoService) List(ctx context.Context, spotID string) ([]*entities.Photo, error) {
	if spotID == "" {
		return nil, apperrors.NewValidationError("spot id is required")
	}
	docs, err := s.store.List(ctx, entities.PhotosCollection(spotID))
	if err != nil {
		return nil, err
	}

	photos := make([]*entities.Photo, 0, len(docs))
	for _, doc := range docs {
		photos = append(photos, entities.PhotoFromDocument(doc.ID, doc.Data))
	}
	SortPhotosNewestFirst(photos)
	return photos, nil
}

// Delete removes the photo document, then its blob
func (s *PhotoService) Delete(ctx context.Context, p *entities.Principal, spot *entities.Spot, photo *entities.Photo) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if spot == nil || spot.IsNew() || photo == nil || photo.IsNew() {
		return apperrors.NewValidationError("spot id and photo id are required")
	}

	collection := entities.PhotosCollection(spot.ID)
	snap, err := s.store.Get(ctx, collection, photo.ID)
	if apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := requireOwner(p, entities.PhotoFromDocument(snap.ID, snap.Data).PhotoUserID, "photo"); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, collection, photo.ID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, spot.ID, photo.ID); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("spot_id", spot.ID).
			Str("photo_id", photo.ID).
			Msg("Failed to delete photo blob")
	}
	return nil
}

func contentTypeOf(photo *entities.Photo) string {
	if photo.ContentType == "" {
		return entities.DefaultPhotoContentType
	}
	return photo.ContentType
}
