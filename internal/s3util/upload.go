package s3util

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror uploads persisted images to s3://Bucket/Prefix/{basename}.
type Mirror struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewMirror creates a Mirror. The prefix may be empty.
func NewMirror(client PutObjectAPI, bucket, prefix string) *Mirror {
	return &Mirror{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key a local file is stored under.
func (m *Mirror) Key(localPath string) string {
	base := filepath.Base(localPath)
	if m.prefix == "" {
		return base
	}
	return path.Join(m.prefix, base)
}

// Upload copies the local file to S3 and returns its s3:// URI.
func (m *Mirror) Upload(ctx context.Context, localPath string) (string, error) {
	key := m.Key(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	start := time.Now()
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &m.bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3://%s/%s: %w", m.bucket, key, err)
	}

	log.Debug().
		Str("bucket", m.bucket).
		Str("key", key).
		Dur("duration", time.Since(start)).
		Msg("Image mirrored to S3")

	return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
}
