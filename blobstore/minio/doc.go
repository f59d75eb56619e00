// Package minio provides a BlobStore implementation using the MinIO
// client, compatible with MinIO, Ceph, Garage, SeaweedFS and other
// S3-compatible systems.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := miniostore.NewStore(client, "my-bucket", "sckm/")
//	err = store.Put(ctx, "models/demo/v1.sckm", data)
package minio
