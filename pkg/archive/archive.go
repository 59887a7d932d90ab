// Package archive uploads finished report files to S3-compatible object
// storage.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbase/workspace-usage/internal/logctx"
)

// Uploader pushes report files to a bucket.
type Uploader struct {
	client  *s3.Client
	manager *manager.Uploader
}

// NewUploader creates an uploader using the default AWS configuration
// (environment, shared config, instance role).
func NewUploader(ctx context.Context) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &Uploader{
		client:  client,
		manager: manager.NewUploader(client),
	}, nil
}

// NewUploaderWithClient creates an uploader from an existing S3 client.
func NewUploaderWithClient(client *s3.Client) *Uploader {
	return &Uploader{
		client:  client,
		manager: manager.NewUploader(client),
	}
}

// ObjectKey returns the bucket key for one report file under prefix.
func ObjectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// UploadDir uploads the named files from dir to the bucket under prefix.
// The first failure aborts; already-uploaded files are left in place, a
// re-run simply overwrites them.
func (u *Uploader) UploadDir(ctx context.Context, bucket, prefix, dir string, names []string) error {
	log := logctx.FromContext(ctx)

	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}

		key := ObjectKey(prefix, name)
		_, err = u.manager.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
		}

		log.Info().
			Str("file", name).
			Str("bucket", bucket).
			Str("key", key).
			Msg("report archived")
	}

	return nil
}
