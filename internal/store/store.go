// Package store keeps the reports of finished batches so clients can read
// them back by batch ID. It is a read-back cache, not a job queue: a batch is
// written once, after it has completed, and expires after a TTL.
//
// Three backends implement ReportStore: an in-process map (default), Redis
// and a DynamoDB table keyed by BATCH#{id} with an expiresAt TTL attribute.
package store

import (
	"context"
	"time"

	"github.com/fpang/creatia/internal/batch"
)

// DefaultTTL is how long a batch report stays readable.
const DefaultTTL = 24 * time.Hour

// StoredBatch is one finished batch.
type StoredBatch struct {
	ID        string        `json:"batch_id" dynamodbav:"-"`
	CreatedAt time.Time     `json:"created_at" dynamodbav:"createdAt"`
	Provider  string        `json:"provider" dynamodbav:"provider"`
	Mode      string        `json:"mode" dynamodbav:"mode"`
	Prompt    string        `json:"prompt,omitempty" dynamodbav:"prompt,omitempty"`
	Report    *batch.Report `json:"results" dynamodbav:"report"`
}

// ReportStore persists batch reports.
//
// Get returns (nil, nil) when the batch does not exist or has expired.
// Put performs full-item replacement.
type ReportStore interface {
	Put(ctx context.Context, b *StoredBatch) error
	Get(ctx context.Context, id string) (*StoredBatch, error)
}
