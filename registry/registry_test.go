package registry

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/hupe1980/sckm"
	"github.com/hupe1980/sckm/blobstore"
	"github.com/hupe1980/sckm/point"
	"github.com/hupe1980/sckm/resource"
	"github.com/hupe1980/sckm/snapshot"
	"github.com/hupe1980/sckm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// testData is two labeled pairs one bit apart within each pair and two
// bits apart across pairs; training resolves them into two clusters.
func testData() []point.Labeled {
	return []point.Labeled{
		{Point: point.MustParse("000"), Label: point.LabelAccept},
		{Point: point.MustParse("001"), Label: point.LabelAccept},
		{Point: point.MustParse("110"), Label: point.LabelMalware},
		{Point: point.MustParse("111"), Label: point.LabelMalware},
	}
}

func newTestModel(t *testing.T) *sckm.SCKM {
	t.Helper()

	m, err := sckm.New(testData())
	require.NoError(t, err)
	return m
}

func TestRegisterGetDeregister(t *testing.T) {
	reg := New(blobstore.NewMemoryStore())
	defer reg.Close()

	m := newTestModel(t)

	require.NoError(t, reg.Register("npm", m))

	got, err := reg.Get("npm")
	require.NoError(t, err)
	assert.Same(t, m, got)

	err = reg.Register("npm", newTestModel(t))
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	err = reg.Register("", newTestModel(t))
	require.Error(t, err)

	require.NoError(t, reg.Register("pypi", newTestModel(t)))
	assert.Equal(t, []string{"npm", "pypi"}, reg.Names())

	require.NoError(t, reg.Deregister("npm"))
	_, err = reg.Get("npm")
	require.ErrorIs(t, err, ErrNotRegistered)

	err = reg.Deregister("npm")
	require.ErrorIs(t, err, ErrNotRegistered)

	// Deregister closed the model.
	err = m.Train(context.Background(), 1)
	require.ErrorIs(t, err, sckm.ErrClosed)
}

func TestTrainThroughController(t *testing.T) {
	ctx := context.Background()

	controller := resource.NewController(resource.WithMaxConcurrentTrainings(1))
	reg := New(blobstore.NewMemoryStore(), WithController(controller))
	defer reg.Close()

	require.NoError(t, reg.Register("npm", newTestModel(t)))

	require.NoError(t, reg.Train(ctx, "npm", 5))

	m, err := reg.Get("npm")
	require.NoError(t, err)
	assert.Equal(t, sckm.TaskStateDone, m.State())

	count, err := m.ClusterCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The slot was released.
	assert.Equal(t, int64(0), controller.ActiveTrainings())

	err = reg.Train(ctx, "absent", 5)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestTrainSlotContention(t *testing.T) {
	controller := resource.NewController(resource.WithMaxConcurrentTrainings(1))
	reg := New(blobstore.NewMemoryStore(), WithController(controller))
	defer reg.Close()

	require.NoError(t, reg.Register("npm", newTestModel(t)))

	// With the only slot held, Train gives up when its context expires.
	require.True(t, controller.TryAcquireTrainSlot())
	defer controller.ReleaseTrainSlot()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := reg.Train(ctx, "npm", 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishRestore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	reg := New(store, WithCompression(snapshot.CompressionLZ4))
	defer reg.Close()

	require.NoError(t, reg.Register("npm", newTestModel(t)))
	require.NoError(t, reg.Train(ctx, "npm", 5))

	m, err := reg.Get("npm")
	require.NoError(t, err)
	wantCenters, err := m.Centers()
	require.NoError(t, err)

	blobName, err := reg.Publish(ctx, "npm")
	require.NoError(t, err)
	assert.Equal(t, snapshotName("npm", 1), blobName)

	// The pointer tracks the published blob.
	pointer, err := blobstore.ReadAll(ctx, store, currentName("npm"))
	require.NoError(t, err)
	assert.Equal(t, blobName, string(pointer))

	// A second publish bumps the version and moves the pointer.
	blobName2, err := reg.Publish(ctx, "npm")
	require.NoError(t, err)
	assert.Equal(t, snapshotName("npm", 2), blobName2)

	pointer, err = blobstore.ReadAll(ctx, store, currentName("npm"))
	require.NoError(t, err)
	assert.Equal(t, blobName2, string(pointer))

	restored, err := reg.Restore(ctx, "npm")
	require.NoError(t, err)

	// Restore replaced the registered model with the snapshot.
	got, err := reg.Get("npm")
	require.NoError(t, err)
	assert.Same(t, restored, got)

	assert.Equal(t, sckm.TaskStateDone, restored.State())

	gotCenters, err := restored.Centers()
	require.NoError(t, err)
	assert.Equal(t, wantCenters, gotCenters)

	// The replaced model was closed by the swap.
	err = m.Train(ctx, 1)
	require.ErrorIs(t, err, sckm.ErrClosed)
}

func TestConcurrentPublishes(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	reg := New(store)
	defer reg.Close()

	require.NoError(t, reg.Register("npm", newTestModel(t)))
	require.NoError(t, reg.Train(ctx, "npm", 5))

	const publishers = 8

	names := make([]string, publishers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < publishers; i++ {
		g.Go(func() error {
			blobName, err := reg.Publish(gctx, "npm")
			names[i] = blobName
			return err
		})
	}
	require.NoError(t, g.Wait())

	// Every publisher claimed its own version.
	want := make([]string, publishers)
	for i := range want {
		want[i] = snapshotName("npm", uint64(i+1))
	}
	sort.Strings(names)
	assert.Equal(t, want, names)

	// The pointer landed on the highest version.
	pointer, err := blobstore.ReadAll(ctx, store, currentName("npm"))
	require.NoError(t, err)
	assert.Equal(t, snapshotName("npm", publishers), string(pointer))
}

func TestPublishToMirrors(t *testing.T) {
	ctx := context.Background()

	primary := blobstore.NewMemoryStore()
	mirror1 := blobstore.NewMemoryStore()
	mirror2 := blobstore.NewMemoryStore()

	controller := resource.NewController(resource.WithIORateLimit(10 * 1024 * 1024))
	reg := New(primary,
		WithMirrors(mirror1, mirror2),
		WithController(controller),
	)
	defer reg.Close()

	rng := testutil.NewRNG(4711)
	data, _ := rng.Clusters(3, 16, 64, 3)

	m, err := sckm.New(data)
	require.NoError(t, err)
	require.NoError(t, reg.Register("npm", m))
	require.NoError(t, reg.Train(ctx, "npm", 20))

	blobName, err := reg.Publish(ctx, "npm")
	require.NoError(t, err)

	want, err := blobstore.ReadAll(ctx, primary, blobName)
	require.NoError(t, err)

	for _, mirror := range []blobstore.BlobStore{mirror1, mirror2} {
		got, err := blobstore.ReadAll(ctx, mirror, blobName)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		pointer, err := blobstore.ReadAll(ctx, mirror, currentName("npm"))
		require.NoError(t, err)
		assert.Equal(t, blobName, string(pointer))
	}
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()

	reg := New(blobstore.NewMemoryStore())
	defer reg.Close()

	_, err := reg.Restore(ctx, "npm")
	require.ErrorIs(t, err, ErrNoSnapshot)

	_, err = reg.Publish(ctx, "npm")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRestoreUntrainedSnapshot(t *testing.T) {
	ctx := context.Background()

	reg := New(blobstore.NewMemoryStore())
	defer reg.Close()

	// Publishing a ready model snapshots its initialization.
	require.NoError(t, reg.Register("npm", newTestModel(t)))
	_, err := reg.Publish(ctx, "npm")
	require.NoError(t, err)

	restored, err := reg.Restore(ctx, "npm")
	require.NoError(t, err)
	assert.Equal(t, sckm.TaskStateReady, restored.State())

	// The restored model trains from its snapshotted initialization.
	require.NoError(t, reg.Train(ctx, "npm", 5))
	count, err := restored.ClusterCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestParseVersion(t *testing.T) {
	v, ok := parseVersion("npm/snapshot-0000000000000042.sckm")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)

	_, ok = parseVersion("npm/CURRENT")
	assert.False(t, ok)

	_, ok = parseVersion("npm/snapshot-garbage.sckm")
	assert.False(t, ok)
}

func TestRegistryClose(t *testing.T) {
	ctx := context.Background()

	reg := New(blobstore.NewMemoryStore())

	m := newTestModel(t)
	require.NoError(t, reg.Register("npm", m))

	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	// The registered model was closed with the registry.
	err := m.Train(ctx, 1)
	require.ErrorIs(t, err, sckm.ErrClosed)

	_, err = reg.Get("npm")
	require.ErrorIs(t, err, sckm.ErrClosed)

	err = reg.Register("pypi", newTestModel(t))
	require.ErrorIs(t, err, sckm.ErrClosed)
}
