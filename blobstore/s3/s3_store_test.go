package s3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/sckm/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreIntegration exercises the store against a real bucket. It
// runs only when S3_BUCKET is set, with credentials from the default
// AWS config chain.
func TestStoreIntegration(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set; skipping S3 integration test")
	}

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	prefix := fmt.Sprintf("sckm-test-%d", time.Now().UnixNano())
	store := NewStore(awss3.NewFromConfig(cfg), bucket, prefix)

	t.Cleanup(func() {
		names, err := store.List(ctx, "")
		if err != nil {
			return
		}
		for _, name := range names {
			_ = store.Delete(ctx, name)
		}
	})

	payload := bytes.Repeat([]byte("cluster snapshot "), 4096)

	w, err := store.Create(ctx, "models/demo/v1.sckm")
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "models/demo/v1.sckm")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(len(payload)), blob.Size())

	got, err := blobstore.ReadAll(ctx, store, "models/demo/v1.sckm")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	names, err := store.List(ctx, "models/")
	require.NoError(t, err)
	assert.Contains(t, names, "models/demo/v1.sckm")

	require.NoError(t, store.Delete(ctx, "models/demo/v1.sckm"))

	_, err = store.Open(ctx, "models/demo/v1.sckm")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
