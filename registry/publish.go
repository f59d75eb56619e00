package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/sckm"
	"github.com/hupe1980/sckm/blobstore"
	"github.com/hupe1980/sckm/snapshot"
	"golang.org/x/sync/errgroup"
)

const snapshotPrefix = "snapshot-"

func currentName(name string) string {
	return name + "/CURRENT"
}

func snapshotName(name string, version uint64) string {
	return fmt.Sprintf("%s/%s%016d.sckm", name, snapshotPrefix, version)
}

// Publish snapshots the named model to the primary store and all
// mirrors, then moves the CURRENT pointer to the new version. The
// pointer moves only after the snapshot blob is fully written, so a
// failed publish never becomes visible to Restore.
//
// Publishes are serialized within the process and allocate distinct
// increasing versions. Publishers in other processes race the same
// version scan; multi-writer deployments need a store with
// conditional commits, such as s3.CommitStore, or a single publishing
// process.
//
// Publish returns the snapshot blob name. A non-pending model is
// required; publishing mid-training fails with sckm.ErrNotReady.
func (r *Registry) Publish(ctx context.Context, name string) (string, error) {
	blobName, err := r.publish(ctx, name)
	r.opts.logger.LogSnapshot(ctx, "publish", name, err)
	return blobName, err
}

func (r *Registry) publish(ctx context.Context, name string) (string, error) {
	m, err := r.Get(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = m.SaveToWriter(&buf, func(o *snapshot.Options) {
		o.Compression = r.opts.compression
	})
	if err != nil {
		return "", err
	}
	data := buf.Bytes()

	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	version, err := r.nextVersion(ctx, name)
	if err != nil {
		return "", err
	}
	blobName := snapshotName(name, version)
	pointer := []byte(blobName)

	if err := r.putThrottled(ctx, r.store, blobName, data); err != nil {
		return "", fmt.Errorf("registry: publish %q: %w", name, err)
	}
	if err := r.putThrottled(ctx, r.store, currentName(name), pointer); err != nil {
		return "", fmt.Errorf("registry: publish %q: %w", name, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, mirror := range r.opts.mirrors {
		g.Go(func() error {
			if err := r.putThrottled(gctx, mirror, blobName, data); err != nil {
				return err
			}
			return r.putThrottled(gctx, mirror, currentName(name), pointer)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("registry: replicate %q: %w", name, err)
	}

	return blobName, nil
}

// Restore loads the latest published snapshot of the named model from
// the primary store and installs it in the registry, closing any model
// previously held under the name. The given options apply to the
// restored model.
func (r *Registry) Restore(ctx context.Context, name string, optFns ...sckm.Option) (*sckm.SCKM, error) {
	m, err := r.restore(ctx, name, optFns)
	r.opts.logger.LogSnapshot(ctx, "restore", name, err)
	return m, err
}

func (r *Registry) restore(ctx context.Context, name string, optFns []sckm.Option) (*sckm.SCKM, error) {
	pointer, err := r.readThrottled(ctx, currentName(name))
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNoSnapshot, name)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: restore %q: %w", name, err)
	}

	blobName := strings.TrimSpace(string(pointer))
	data, err := r.readThrottled(ctx, blobName)
	if err != nil {
		return nil, fmt.Errorf("registry: restore %q: %w", name, err)
	}

	m, err := sckm.NewFromReader(bytes.NewReader(data), optFns...)
	if err != nil {
		return nil, fmt.Errorf("registry: restore %q: %w", name, err)
	}

	if err := r.swap(name, m); err != nil {
		return nil, err
	}
	return m, nil
}

// nextVersion resolves the next snapshot version for the name by
// scanning the published blobs. Blob names that do not parse as
// snapshot versions are ignored.
func (r *Registry) nextVersion(ctx context.Context, name string) (uint64, error) {
	names, err := r.store.List(ctx, name+"/"+snapshotPrefix)
	if err != nil {
		return 0, fmt.Errorf("registry: list snapshots: %w", err)
	}

	var latest uint64
	for _, n := range names {
		v, ok := parseVersion(n)
		if ok && v > latest {
			latest = v
		}
	}
	return latest + 1, nil
}

func parseVersion(blobName string) (uint64, bool) {
	base := blobName[strings.LastIndexByte(blobName, '/')+1:]
	base = strings.TrimPrefix(base, snapshotPrefix)
	base = strings.TrimSuffix(base, ".sckm")

	v, err := strconv.ParseUint(base, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *Registry) putThrottled(ctx context.Context, store blobstore.BlobStore, name string, data []byte) error {
	if err := r.opts.controller.ThrottleIO(ctx, len(data)); err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

func (r *Registry) readThrottled(ctx context.Context, name string) ([]byte, error) {
	b, err := r.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	size := b.Size()
	if err := r.opts.controller.ThrottleIO(ctx, int(size)); err != nil {
		return nil, err
	}
	return io.ReadAll(io.NewSectionReader(b, 0, size))
}
