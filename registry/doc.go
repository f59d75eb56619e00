// Package registry manages a fleet of named models and their snapshot
// lifecycle.
//
// Models are registered under names, trained through shared resource
// slots, and published as versioned snapshots to a blob store with
// optional mirror replication. Restore brings back the latest
// published snapshot of a model:
//
//	reg := registry.New(blobstore.NewLocalStore(dir),
//		registry.WithController(resource.NewController(
//			resource.WithMaxConcurrentTrainings(2),
//		)),
//	)
//	defer reg.Close()
//
//	_ = reg.Register("npm-packages", m)
//	_ = reg.Train(ctx, "npm-packages", 10)
//	_, _ = reg.Publish(ctx, "npm-packages")
//
//	// Later, possibly in another process:
//	m2, _ := reg.Restore(ctx, "npm-packages")
//
// Each publish writes an immutable snapshot-<version> blob and then
// moves the model's CURRENT pointer, so readers always see a complete
// snapshot.
package registry
