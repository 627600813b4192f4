/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Sort key prefixes separating the three collection kinds stored under one PK.
const (
	hashPrefix = "h#"
	setPrefix  = "s#"
	zsetPrefix = "z#"
)

// maxBatchWrite is the DynamoDB limit on requests per BatchWriteItem call.
const maxBatchWrite = 25

// TableConfig names the table and its key attributes.
type TableConfig struct {
	TableName string
	// PartitionKeyName is the hash key attribute. Default: "PK"
	PartitionKeyName string
	// SortKeyName is the range key attribute. Default: "SK"
	SortKeyName string
}

func (c *TableConfig) validate() {
	if c.PartitionKeyName == "" {
		c.PartitionKeyName = "PK"
	}
	if c.SortKeyName == "" {
		c.SortKeyName = "SK"
	}
}

// RetryConfig controls retries of throttled reads and unprocessed batch writes.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryConfig returns 3 retries with a 100ms linear backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, Backoff: 100 * time.Millisecond}
}

func (r RetryConfig) wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(attempt+1) * r.Backoff):
		return nil
	}
}

// queryPrefix returns every item under pk whose sort key begins with prefix,
// following pagination. limit > 0 stops after that many items.
func (d *DynamodbDataStore) queryPrefix(ctx context.Context, pk, prefix string, limit int) ([]record, error) {
	input := &sdk.QueryInput{
		TableName:              aws.String(d.table.TableName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": d.table.PartitionKeyName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
	}
	if prefix != "" {
		input.KeyConditionExpression = aws.String("#pk = :pk AND begins_with(#sk, :prefix)")
		input.ExpressionAttributeNames["#sk"] = d.table.SortKeyName
		input.ExpressionAttributeValues[":prefix"] = &types.AttributeValueMemberS{Value: prefix}
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	var out []record
	for {
		page, err := d.queryWithRetry(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			rec, err := d.decode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// queryWithRetry executes one query page, retrying throttling errors.
func (d *DynamodbDataStore) queryWithRetry(ctx context.Context, input *sdk.QueryInput) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= d.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := d.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, fmt.Errorf("query error: %w", err)
		}
		if attempt < d.retry.MaxRetries {
			if err := d.retry.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", d.retry.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable.
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
