package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/adapters/database"
	"github.com/snacktacular/backend/internal/adapters/storage"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/domain/entities"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

func TestPhotoService_SaveWithoutPrincipalTouchesNothing(t *testing.T) {
	store := new(MockDocumentStore)
	blobs := new(MockBlobStore)
	service := services.NewPhotoService(store, blobs)

	photo := entities.NewPhoto(nil)
	photo.Image = []byte("jpeg")
	err := service.Save(context.Background(), nil, &entities.Spot{ID: "s1"}, photo)

	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
	assert.Empty(t, photo.ID)
	assert.Empty(t, store.Calls)
	assert.Empty(t, blobs.Calls)
}

func TestPhotoService_CreateUploadsThenWrites(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	blobs := storage.NewMemoryBlobStore("https://blobs.test")
	service := services.NewPhotoService(store, blobs)
	spot := seedSpot(t, store, alice, "Deli")

	photo := entities.NewPhoto(bob)
	photo.Description = "counter"
	photo.Image = []byte("jpeg bytes")
	photo.ContentType = "image/png"
	require.NoError(t, service.Save(ctx, bob, spot, photo))

	require.NotEmpty(t, photo.ID)
	assert.Equal(t, "https://blobs.test/"+storage.ObjectName(spot.ID, photo.ID), photo.PhotoURL)

	blob, ok := blobs.Get(spot.ID, photo.ID)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg bytes"), blob.Data)
	assert.Equal(t, "image/png", blob.ContentType)

	got, err := service.Get(ctx, spot.ID, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, "counter", got.Description)
	assert.Equal(t, photo.PhotoURL, got.PhotoURL)
	assert.Equal(t, bob.UserID, got.PhotoUserID)
}

func TestPhotoService_CreateRequiresImage(t *testing.T) {
	store := database.NewMemoryStore()
	service := services.NewPhotoService(store, storage.NewMemoryBlobStore(""))
	spot := seedSpot(t, store, alice, "Deli")

	err := service.Save(context.Background(), bob, spot, entities.NewPhoto(bob))
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestPhotoService_UploadFailureLeavesPhotoUnsaved(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	blobs := new(MockBlobStore)
	blobs.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything, entities.DefaultPhotoContentType).
		Return("", apperrors.NewExternalError("storage down", nil))
	service := services.NewPhotoService(store, blobs)
	spot := seedSpot(t, store, alice, "Deli")

	photo := entities.NewPhoto(bob)
	photo.Image = []byte("jpeg")
	require.Error(t, service.Save(ctx, bob, spot, photo))

	assert.Empty(t, photo.ID)
	assert.Empty(t, photo.PhotoURL)
	docs, err := store.List(ctx, entities.PhotosCollection(spot.ID))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPhotoService_DocumentFailureRemovesBlob(t *testing.T) {
	ctx := context.Background()
	spotStore := database.NewMemoryStore()
	spot := seedSpot(t, spotStore, alice, "Deli")

	store := newFlakyStore(entities.PhotosCollection(spot.ID), -1, apperrors.NewInternalError("write failed", nil))
	blobs := storage.NewMemoryBlobStore("https://blobs.test")
	service := services.NewPhotoService(store, blobs)

	photo := entities.NewPhoto(bob)
	photo.Image = []byte("jpeg")
	require.Error(t, service.Save(ctx, bob, spot, photo))

	assert.Empty(t, photo.ID)
	assert.Empty(t, photo.PhotoURL)
	photos, err := service.List(ctx, spot.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestPhotoService_UpdateWithoutImageKeepsURL(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	blobs := storage.NewMemoryBlobStore("https://blobs.test")
	service := services.NewPhotoService(store, blobs)
	spot := seedSpot(t, store, alice, "Deli")

	photo := entities.NewPhoto(bob)
	photo.Image = []byte("jpeg")
	require.NoError(t, service.Save(ctx, bob, spot, photo))
	id, url := photo.ID, photo.PhotoURL

	edit := &entities.Photo{ID: id, Description: "new caption"}
	require.NoError(t, service.Save(ctx, bob, spot, edit))

	assert.Equal(t, id, edit.ID)
	assert.Equal(t, url, edit.PhotoURL)
	assert.Equal(t, bob.UserID, edit.PhotoUserID)

	err := service.Save(ctx, alice, spot, &entities.Photo{ID: id, Description: "mine now"})
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
}

func TestPhotoService_Delete(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	blobs := storage.NewMemoryBlobStore("https://blobs.test")
	service := services.NewPhotoService(store, blobs)
	spot := seedSpot(t, store, alice, "Deli")

	photo := entities.NewPhoto(bob)
	photo.Image = []byte("jpeg")
	require.NoError(t, service.Save(ctx, bob, spot, photo))

	err := service.Delete(ctx, alice, spot, photo)
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))

	require.NoError(t, service.Delete(ctx, bob, spot, photo))
	_, ok := blobs.Get(spot.ID, photo.ID)
	assert.False(t, ok)
	_, err = service.Get(ctx, spot.ID, photo.ID)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, service.Delete(ctx, bob, spot, photo))
}
