package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadURL(t *testing.T) {
	url := DownloadURL("snacktacular.appspot.com", ObjectName("spot-1", "photo-1"), "tok")

	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/snacktacular.appspot.com/o/spot-1%2Fphoto-1?alt=media&token=tok",
		url)
}

func TestMemoryBlobStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore("http://localhost:8080/blobs")

	data := []byte{0xff, 0xd8, 0xff}
	url, err := store.Upload(ctx, "s", "p", data, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blobs/s/p", url)

	data[0] = 0
	blob, ok := store.Get("s", "p")
	require.True(t, ok)
	assert.Equal(t, byte(0xff), blob.Data[0])
	assert.Equal(t, "image/jpeg", blob.ContentType)

	require.NoError(t, store.Delete(ctx, "s", "p"))
	_, ok = store.Get("s", "p")
	assert.False(t, ok)
}
