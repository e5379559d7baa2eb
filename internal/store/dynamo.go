package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/batch"
)

// DynamoDB key constants. Every batch is a single item.
const (
	pkPrefix = "BATCH#"
	skReport = "REPORT"
)

// ItemAPI is the subset of the DynamoDB client used by DynamoStore.
type ItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore implements ReportStore on a DynamoDB table with a string PK/SK
// key schema and TTL enabled on the expiresAt attribute.
type DynamoStore struct {
	client    ItemAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// Compile-time interface check.
var _ ReportStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table. ttl <= 0 uses DefaultTTL.
func NewDynamoStore(client ItemAPI, tableName string, ttl time.Duration) *DynamoStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		now:       time.Now,
	}
}

func batchPK(id string) string {
	return pkPrefix + id
}

// putItem marshals a domain object and writes it with PK, SK and TTL.
// The domain object should use dynamodbav:"-" for fields derived from PK/SK.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data interface{}) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// getItem reads a single item and unmarshals it into out. Returns false if
// the item does not exist or its TTL has passed; DynamoDB deletes expired
// items lazily, so expiresAt is checked here too.
func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, fmt.Errorf("GetItem PK=%s SK=%s: %w", pk, sk, err)
	}
	if result.Item == nil {
		return false, nil
	}

	if n, ok := result.Item["expiresAt"].(*types.AttributeValueMemberN); ok {
		if exp, err := strconv.ParseInt(n.Value, 10, 64); err == nil && s.now().Unix() > exp {
			return false, nil
		}
	}

	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal PK=%s SK=%s: %w", pk, sk, err)
	}
	return true, nil
}

// Put implements ReportStore.
func (s *DynamoStore) Put(ctx context.Context, b *StoredBatch) error {
	if err := s.putItem(ctx, batchPK(b.ID), skReport, b); err != nil {
		return err
	}
	log.Debug().Str("batch_id", b.ID).Str("table", s.tableName).Msg("Batch report stored in DynamoDB")
	return nil
}

// Get implements ReportStore.
func (s *DynamoStore) Get(ctx context.Context, id string) (*StoredBatch, error) {
	var b StoredBatch
	found, err := s.getItem(ctx, batchPK(id), skReport, &b)
	if err != nil || !found {
		return nil, err
	}
	b.ID = id
	if b.Report == nil {
		b.Report = &batch.Report{}
	}
	if b.Report.Successful == nil {
		b.Report.Successful = []batch.ImageResult{}
	}
	if b.Report.Failed == nil {
		b.Report.Failed = []batch.FailedResult{}
	}
	return &b, nil
}
