package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/sckm/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-sckm"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	err = store.Put(ctx, "snapshot.sckm", data)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "snapshot.sckm")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	// Ranged read from the middle of the object.
	partBuf := make([]byte, 5)
	_, err = blob.ReadAt(partBuf, 6)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(partBuf))
	require.NoError(t, blob.Close())

	got, err := blobstore.ReadAll(ctx, store, "snapshot.sckm")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "snapshot.sckm")

	err = store.Delete(ctx, "snapshot.sckm")
	require.NoError(t, err)

	_, err = store.Open(ctx, "snapshot.sckm")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	// Streaming upload becomes visible on Close.
	wb, err := store.Create(ctx, "stream.sckm")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	err = wb.Close()
	require.NoError(t, err)

	blob2, err := store.Open(ctx, "stream.sckm")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob2.Size())
	require.NoError(t, blob2.Close())

	_ = store.Delete(ctx, "stream.sckm")
}
