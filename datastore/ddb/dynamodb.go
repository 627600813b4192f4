/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/suparena/kvobject/datastore"
)

// Client is the subset of the DynamoDB API the store uses. *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

// record is one row of the single-table layout. Every hash field, set member and
// sorted-set member of a store key is its own item under PK = key.
type record struct {
	PK    string  `dynamodbav:"PK"`
	SK    string  `dynamodbav:"SK"`
	Value string  `dynamodbav:"V,omitempty"`
	Score float64 `dynamodbav:"N,omitempty"`
}

// DynamodbDataStore implements datastore.Store on a single DynamoDB table.
type DynamodbDataStore struct {
	client Client
	table  TableConfig
	retry  RetryConfig
}

var _ datastore.Store = (*DynamodbDataStore)(nil)

// NewDynamoDBClient initializes a DynamoDB client using AWS credentials.
// Empty keys fall back to the default credential chain; a non-empty endpoint
// targets DynamoDB Local or another compatible service.
func NewDynamoDBClient(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion, endpoint string, logger zerolog.Logger) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(awsRegion)}
	if awsAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	logger.Debug().Str("region", awsRegion).Str("endpoint", endpoint).Msg("DynamoDB client initialized")
	return client, nil
}

// NewDynamodbDataStore constructs a store on an existing client.
func NewDynamodbDataStore(client Client, table TableConfig) *DynamodbDataStore {
	table.validate()
	return &DynamodbDataStore{
		client: client,
		table:  table,
		retry:  DefaultRetryConfig(),
	}
}

// WithRetry overrides the read retry policy.
func (d *DynamodbDataStore) WithRetry(cfg RetryConfig) *DynamodbDataStore {
	d.retry = cfg
	return d
}

func (d *DynamodbDataStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	rec, err := d.getOne(ctx, key, hashPrefix+field)
	if err != nil {
		return "", false, fmt.Errorf("HGet %s %s: %w", key, field, err)
	}
	if rec == nil {
		return "", false, nil
	}
	return rec.Value, true, nil
}

func (d *DynamodbDataStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	recs, err := d.queryPrefix(ctx, key, hashPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("HGetAll %s: %w", key, err)
	}
	out := make(map[string]string, len(recs))
	for _, r := range recs {
		out[r.SK[len(hashPrefix):]] = r.Value
	}
	return out, nil
}

func (d *DynamodbDataStore) SMembers(ctx context.Context, key string) ([]string, error) {
	recs, err := d.queryPrefix(ctx, key, setPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("SMembers %s: %w", key, err)
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.SK[len(setPrefix):])
	}
	return out, nil
}

func (d *DynamodbDataStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	rec, err := d.getOne(ctx, key, setPrefix+member)
	if err != nil {
		return false, fmt.Errorf("SIsMember %s: %w", key, err)
	}
	return rec != nil, nil
}

func (d *DynamodbDataStore) ZRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	recs, err := d.queryPrefix(ctx, key, zsetPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("ZRange %s: %w", key, err)
	}
	scores := make(map[string]float64, len(recs))
	for _, r := range recs {
		scores[r.SK[len(zsetPrefix):]] = r.Score
	}
	return datastore.SortedRange(scores, start, stop, reverse), nil
}

func (d *DynamodbDataStore) Exists(ctx context.Context, key string) (bool, error) {
	recs, err := d.queryPrefix(ctx, key, "", 1)
	if err != nil {
		return false, fmt.Errorf("Exists %s: %w", key, err)
	}
	return len(recs) > 0, nil
}

func (d *DynamodbDataStore) HSet(ctx context.Context, key, field, value string) error {
	if err := d.put(ctx, record{PK: key, SK: hashPrefix + field, Value: value}); err != nil {
		return fmt.Errorf("HSet %s %s: %w", key, field, err)
	}
	return nil
}

func (d *DynamodbDataStore) SAdd(ctx context.Context, key string, members ...string) error {
	for _, m := range members {
		if err := d.put(ctx, record{PK: key, SK: setPrefix + m}); err != nil {
			return fmt.Errorf("SAdd %s: %w", key, err)
		}
	}
	return nil
}

func (d *DynamodbDataStore) SRem(ctx context.Context, key string, members ...string) error {
	for _, m := range members {
		if err := d.deleteOne(ctx, key, setPrefix+m); err != nil {
			return fmt.Errorf("SRem %s: %w", key, err)
		}
	}
	return nil
}

func (d *DynamodbDataStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if err := d.put(ctx, record{PK: key, SK: zsetPrefix + member, Score: score}); err != nil {
		return fmt.Errorf("ZAdd %s: %w", key, err)
	}
	return nil
}

func (d *DynamodbDataStore) ZRem(ctx context.Context, key string, members ...string) error {
	for _, m := range members {
		if err := d.deleteOne(ctx, key, zsetPrefix+m); err != nil {
			return fmt.Errorf("ZRem %s: %w", key, err)
		}
	}
	return nil
}

// Del removes every item under each key, in BatchWriteItem chunks.
func (d *DynamodbDataStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		recs, err := d.queryPrefix(ctx, key, "", 0)
		if err != nil {
			return fmt.Errorf("Del %s: %w", key, err)
		}
		for start := 0; start < len(recs); start += maxBatchWrite {
			end := start + maxBatchWrite
			if end > len(recs) {
				end = len(recs)
			}
			if err := d.deleteBatch(ctx, recs[start:end]); err != nil {
				return fmt.Errorf("Del %s: %w", key, err)
			}
		}
	}
	return nil
}

func (d *DynamodbDataStore) Close() error {
	return nil
}

func (d *DynamodbDataStore) getOne(ctx context.Context, pk, sk string) (*record, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(d.table.TableName),
		Key:            d.keyOf(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	rec, err := d.decode(out.Item)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DynamodbDataStore) put(ctx context.Context, rec record) error {
	item, err := d.encode(rec)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(d.table.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamodbDataStore) deleteOne(ctx context.Context, pk, sk string) error {
	_, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(d.table.TableName),
		Key:       d.keyOf(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

func (d *DynamodbDataStore) deleteBatch(ctx context.Context, recs []record) error {
	requests := make([]types.WriteRequest, 0, len(recs))
	for _, r := range recs {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: d.keyOf(r.PK, r.SK)},
		})
	}

	pending := map[string][]types.WriteRequest{d.table.TableName: requests}
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt > d.retry.MaxRetries {
			return errors.New("unprocessed delete requests remain after retries")
		}
		out, err := d.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("BatchWriteItem failed: %w", err)
		}
		pending = out.UnprocessedItems
		if len(pending) > 0 {
			if err := d.retry.wait(ctx, attempt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *DynamodbDataStore) keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		d.table.PartitionKeyName: &types.AttributeValueMemberS{Value: pk},
		d.table.SortKeyName:      &types.AttributeValueMemberS{Value: sk},
	}
}

// encode marshals a record, renaming PK/SK to the configured attribute names.
func (d *DynamodbDataStore) encode(rec record) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if d.table.PartitionKeyName != "PK" {
		av[d.table.PartitionKeyName] = av["PK"]
		delete(av, "PK")
	}
	if d.table.SortKeyName != "SK" {
		av[d.table.SortKeyName] = av["SK"]
		delete(av, "SK")
	}
	return av, nil
}

func (d *DynamodbDataStore) decode(item map[string]types.AttributeValue) (record, error) {
	var rec record
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if v, ok := item[d.table.PartitionKeyName].(*types.AttributeValueMemberS); ok {
		rec.PK = v.Value
	}
	if v, ok := item[d.table.SortKeyName].(*types.AttributeValueMemberS); ok {
		rec.SK = v.Value
	}
	return rec, nil
}
