// Package s3util moves generated and reference images between local disk
// and S3.
package s3util

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// GetObjectAPI is the subset of the S3 client used for downloads.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ParseURI splits s3://bucket/key. ok is false for anything else.
func ParseURI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// DownloadToFile downloads an S3 object to a specific local path.
func DownloadToFile(ctx context.Context, client GetObjectAPI, bucket, key, localPath string) error {
	log.Debug().Str("bucket", bucket).Str("key", key).Str("localPath", localPath).Msg("Downloading from S3")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	})
	if err != nil {
		return fmt.Errorf("S3 GetObject s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, result.Body); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	return nil
}

// LocalizeReferences returns paths with every s3:// URI replaced by a local
// copy under dir. Local paths are returned unchanged and in order.
func LocalizeReferences(ctx context.Context, client GetObjectAPI, paths []string, dir string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		bucket, key, ok := ParseURI(p)
		if !ok {
			out[i] = p
			continue
		}
		if client == nil {
			return nil, fmt.Errorf("reference %s needs S3 access, which is not configured", p)
		}

		local := filepath.Join(dir, fmt.Sprintf("%d_%s", i, filepath.Base(key)))
		if err := DownloadToFile(ctx, client, bucket, key, local); err != nil {
			return nil, err
		}
		out[i] = local
	}
	return out, nil
}
