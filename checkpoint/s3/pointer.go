package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the interface for DynamoDB operations used by LatestPointer.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when another writer committed the
// same pointer version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// LatestPointer tracks which checkpoint name is the most recent committed
// one, using DynamoDB conditional writes for the compare-and-swap semantics
// S3 lacks. A trainer commits the pointer after the terminal checkpoint
// upload succeeds; a crashed or superseded run never becomes "latest".
//
// Table schema:
//   - Partition key: run_uri (string) - the S3 bucket/prefix of the run
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name declust-checkpoints \
//	  --attribute-definitions AttributeName=run_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=run_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type LatestPointer struct {
	client    DDBClient
	tableName string
	runURI    string
}

// NewLatestPointer creates a pointer store. runURI should be in
// "s3://bucket/prefix" format and is used as the partition key.
func NewLatestPointer(client DDBClient, tableName, runURI string) *LatestPointer {
	return &LatestPointer{
		client:    client,
		tableName: tableName,
		runURI:    runURI,
	}
}

// Get returns the checkpoint name the pointer currently references.
// An empty name with a nil error means no checkpoint was ever committed.
func (p *LatestPointer) Get(ctx context.Context) (string, error) {
	_, name, err := p.latest(ctx)
	return name, err
}

// Commit atomically advances the pointer to the given checkpoint name.
func (p *LatestPointer) Commit(ctx context.Context, name string) error {
	currentVersion, _, err := p.latest(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = p.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(p.tableName),
		Item: map[string]types.AttributeValue{
			"run_uri":         &types.AttributeValueMemberS{Value: p.runURI},
			"version":         &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"checkpoint_name": &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit checkpoint pointer: %w", err)
	}

	return nil
}

func (p *LatestPointer) latest(ctx context.Context) (uint64, string, error) {
	resp, err := p.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(p.tableName),
		KeyConditionExpression: aws.String("run_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: p.runURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	nameAttr, ok := item["checkpoint_name"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid checkpoint_name attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, nameAttr.Value, nil
}
