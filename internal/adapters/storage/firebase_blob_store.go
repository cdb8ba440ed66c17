package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/snacktacular/backend/internal/domain/providers"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// downloadTokenKey is the object metadata key Firebase Storage reads download tokens from
const downloadTokenKey = "firebaseStorageDownloadTokens"

// FirebaseBlobStore stores photos in the project's Firebase Storage bucket
// under "<spotID>/<photoID>" and returns token-bearing download URLs.
type FirebaseBlobStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

var _ providers.BlobStore = (*FirebaseBlobStore)(nil)

// NewFirebaseBlobStore creates a blob store over bucket
func NewFirebaseBlobStore(bucket *gcs.BucketHandle, bucketName string) *FirebaseBlobStore {
	return &FirebaseBlobStore{bucket: bucket, bucketName: bucketName}
}

// ObjectName returns the storage path of a photo
func ObjectName(spotID, photoID string) string {
	return spotID + "/" + photoID
}

// Upload writes data and returns its download URL
func (s *FirebaseBlobStore) Upload(ctx context.Context, spotID, photoID string, data []byte, contentType string) (string, error) {
	name := ObjectName(spotID, photoID)
	token := uuid.NewString()

	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: token}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", apperrors.NewExternalError("failed to upload photo", err)
	}
	if err := w.Close(); err != nil {
		return "", apperrors.NewExternalError("failed to finalize photo upload", err)
	}

	return DownloadURL(s.bucketName, name, token), nil
}

// Delete removes a stored photo. A missing object is not an error.
func (s *FirebaseBlobStore) Delete(ctx context.Context, spotID, photoID string) error {
	err := s.bucket.Object(ObjectName(spotID, photoID)).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return apperrors.NewExternalError("failed to delete photo", err)
	}
	return nil
}

// DownloadURL builds the public Firebase Storage URL for an object
func DownloadURL(bucket, object, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(object), url.QueryEscape(token))
}
