// Package s3 provides Amazon S3 backed snapshot storage.
//
// Store implements blobstore.BlobStore on top of the AWS SDK v2: reads
// are served through ranged GetObject requests and writes stream
// through the S3 transfer manager, so snapshots never have to fit in
// memory. Uploads carry CRC32C checksums by default so S3 verifies
// payload integrity server-side.
//
//	import (
//		"github.com/aws/aws-sdk-go-v2/config"
//		awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
//		"github.com/hupe1980/sckm/blobstore/s3"
//	)
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "sckm/")
//
// CommitStore layers a DynamoDB version log on top of Store for
// deployments where several publishers race: each published snapshot
// gets a monotonically increasing version, and conflicting commits
// surface as ErrConcurrentCommit instead of silently clobbering each
// other.
package s3
