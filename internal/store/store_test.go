package store

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"

	"github.com/fpang/creatia/internal/batch"
)

func sampleBatch(id string) *StoredBatch {
	return &StoredBatch{
		ID:        id,
		CreatedAt: time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
		Provider:  "openai",
		Mode:      "generate",
		Prompt:    "a neon cat",
		Report: &batch.Report{
			Successful: []batch.ImageResult{
				{Index: 0, ImagePath: "out/cat_0.png", Status: batch.StatusSuccess},
				{Index: 2, Error: "Failed to save image: disk full", Status: batch.StatusSaveFailed},
			},
			Failed:          []batch.FailedResult{{Index: 1, Error: "timeout", Status: batch.StatusFailed}},
			TotalRequested:  3,
			TotalSuccessful: 2,
			TotalFailed:     1,
		},
	}
}

// mustGet fails the test on a store error and returns the lookup result.
func mustGet(t *testing.T, s ReportStore, id string) *StoredBatch {
	t.Helper()
	got, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%q): unexpected error: %v", id, err)
	}
	return got
}

func mustPut(t *testing.T, s ReportStore, b *StoredBatch) {
	t.Helper()
	if err := s.Put(context.Background(), b); err != nil {
		t.Fatalf("Put(%q): unexpected error: %v", b.ID, err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if got := mustGet(t, s, "batch-missing"); got != nil {
		t.Errorf("expected miss, got %+v", got)
	}

	want := sampleBatch("batch-1")
	mustPut(t, s, want)

	if got := mustGet(t, s, "batch-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	now = now.Add(2 * time.Hour)
	if got := mustGet(t, s, "batch-1"); got != nil {
		t.Error("expired entries should not be returned")
	}

	mustPut(t, s, sampleBatch("batch-2"))
	if len(s.items) != 1 {
		t.Errorf("expired entries should be swept on write, have %d", len(s.items))
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, 30*time.Minute)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if got := mustGet(t, s, "batch-missing"); got != nil {
		t.Errorf("expected miss, got %+v", got)
	}

	want := sampleBatch("batch-abc")
	mustPut(t, s, want)

	if !mr.Exists("creatia:batch:batch-abc") {
		t.Fatal("key was not written")
	}
	if ttl := mr.TTL("creatia:batch:batch-abc"); ttl != 30*time.Minute {
		t.Errorf("ttl = %v, want 30m", ttl)
	}

	if got := mustGet(t, s, "batch-abc"); !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	mr.FastForward(31 * time.Minute)
	if got := mustGet(t, s, "batch-abc"); got != nil {
		t.Error("expired key should read as a miss")
	}
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if err := mr.Set("creatia:batch:bad", "{not json"); err != nil {
		t.Fatal(err)
	}
	_, err := NewRedisStore(client, 0).Get(context.Background(), "bad")
	if err == nil || !strings.Contains(err.Error(), "unmarshal") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func itemKey(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value + "|" + key["SK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[itemKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func TestDynamoStore(t *testing.T) {
	fake := &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
	s := NewDynamoStore(fake, "creatia-batches", time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	want := sampleBatch("batch-xyz")
	mustPut(t, s, want)

	item := fake.items["BATCH#batch-xyz|REPORT"]
	if item == nil {
		t.Fatal("item was not written under BATCH#batch-xyz / REPORT")
	}
	if _, hasID := item["ID"]; hasID {
		t.Error("ID is derived from the key and should not be stored")
	}
	exp := item["expiresAt"].(*types.AttributeValueMemberN).Value
	if want := strconv.FormatInt(now.Add(time.Hour).Unix(), 10); exp != want {
		t.Errorf("expiresAt = %s, want %s", exp, want)
	}

	if got := mustGet(t, s, "batch-xyz"); !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if got := mustGet(t, s, "batch-none"); got != nil {
		t.Errorf("expected miss, got %+v", got)
	}

	now = now.Add(2 * time.Hour)
	if got := mustGet(t, s, "batch-xyz"); got != nil {
		t.Error("items past expiresAt should be treated as missing")
	}
}

func TestDynamoStoreEmptyLists(t *testing.T) {
	fake := &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
	s := NewDynamoStore(fake, "t", 0)

	b := sampleBatch("batch-empty")
	b.Report = &batch.Report{Successful: []batch.ImageResult{}, Failed: []batch.FailedResult{}}
	mustPut(t, s, b)

	got := mustGet(t, s, "batch-empty")
	if got == nil {
		t.Fatal("expected a hit")
	}
	if got.Report.Successful == nil || got.Report.Failed == nil {
		t.Error("empty lists should round-trip as empty, not nil")
	}
}
