// Package blobstore provides storage abstraction for model snapshots.
//
// BlobStore is the interface for reading and writing snapshot blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic renames
//   - MemoryStore: in-memory store for tests
//   - s3.Store: Amazon S3 with ranged reads and streamed uploads
//   - minio.Store: any S3-compatible endpoint via the MinIO client
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom backends. Blobs
// written through Create must become visible atomically on Close;
// partially written blobs must never be observable under their final
// name.
package blobstore
