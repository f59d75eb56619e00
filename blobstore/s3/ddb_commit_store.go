package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/sckm/blobstore"
)

// ErrConcurrentCommit is returned when another writer published the
// same version first. Callers retry by re-reading Current.
var ErrConcurrentCommit = errors.New("s3: concurrent commit detected")

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore couples an S3 blob store with a DynamoDB version log so
// snapshot publishes become linearizable. Blobs are written through
// the embedded store as usual; Commit then records which blob is the
// current snapshot under a monotonically increasing version.
//
// The table uses model_uri (S) as the hash key and version (N) as the
// range key:
//
//	aws dynamodb create-table \
//	  --table-name sckm-commits \
//	  --attribute-definitions \
//	    AttributeName=model_uri,AttributeType=S \
//	    AttributeName=version,AttributeType=N \
//	  --key-schema \
//	    AttributeName=model_uri,KeyType=HASH \
//	    AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
//
// Each commit writes a new item with a conditional put on
// attribute_not_exists(version), so two writers racing for the same
// version number resolve deterministically: one wins, the other gets
// ErrConcurrentCommit.
type CommitStore struct {
	*Store

	ddb      DDBClient
	table    string
	modelURI string
}

// NewCommitStore wraps store with versioned commits tracked in the
// given DynamoDB table. modelURI namespaces the version log, so
// several models can share one table.
func NewCommitStore(store *Store, ddb DDBClient, table, modelURI string) *CommitStore {
	return &CommitStore{
		Store:    store,
		ddb:      ddb,
		table:    table,
		modelURI: modelURI,
	}
}

// Commit records snapshotKey as the next version of the model and
// returns the version number it was assigned.
func (c *CommitStore) Commit(ctx context.Context, snapshotKey string) (uint64, error) {
	_, latest, err := c.latestVersion(ctx)
	if err != nil {
		return 0, err
	}

	next := latest + 1

	_, err = c.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]ddbtypes.AttributeValue{
			"model_uri":    &ddbtypes.AttributeValueMemberS{Value: c.modelURI},
			"version":      &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"snapshot_key": &ddbtypes.AttributeValueMemberS{Value: snapshotKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, ErrConcurrentCommit
		}
		return 0, err
	}

	return next, nil
}

// Current returns the snapshot key and version of the latest commit.
// It returns blobstore.ErrNotFound before the first commit.
func (c *CommitStore) Current(ctx context.Context) (string, uint64, error) {
	key, version, err := c.latestVersion(ctx)
	if err != nil {
		return "", 0, err
	}
	if version == 0 {
		return "", 0, blobstore.ErrNotFound
	}
	return key, version, nil
}

func (c *CommitStore) latestVersion(ctx context.Context) (string, uint64, error) {
	out, err := c.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("model_uri = :uri"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":uri": &ddbtypes.AttributeValueMemberS{Value: c.modelURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return "", 0, err
	}

	if len(out.Items) == 0 {
		return "", 0, nil
	}

	item := out.Items[0]

	versionAttr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return "", 0, fmt.Errorf("s3: commit item has malformed version attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("s3: parse commit version: %w", err)
	}

	var key string
	if keyAttr, ok := item["snapshot_key"].(*ddbtypes.AttributeValueMemberS); ok {
		key = keyAttr.Value
	}

	return key, version, nil
}
