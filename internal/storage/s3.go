package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
)

// Config holds S3-compatible storage settings. Endpoint is set when
// pointing at MinIO or another non-AWS provider.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Client implements Client against any S3-compatible object store.
type S3Client struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

var _ Client = (*S3Client)(nil)

// NewS3Client builds a storage client with static credentials.
func NewS3Client(ctx context.Context, cfg Config, logger *slog.Logger) (*S3Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// objectKey derives a collision-free key from the upload name. The name is
// kept for readability when browsing the bucket; the uuid prevents retried
// pipeline cycles from silently overwriting each other's objects.
func objectKey(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", base, uuid.New(), ext)
}

// Upload stores data and returns the object key as the file id.
func (c *S3Client) Upload(ctx context.Context, data []byte, name string) (string, error) {
	key := objectKey(name)

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", apperrors.ServiceError("storage upload failed", err)
	}

	c.logger.Debug("uploaded object", "key", key, "size", len(data))
	return key, nil
}

// Download fetches an object's bytes by key.
func (c *S3Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if apperrors.As(err, &noKey) {
			return nil, apperrors.NotFoundf("file %s not found", fileID)
		}
		return nil, apperrors.ServiceError("storage download failed", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.ServiceError("storage download failed", err)
	}
	return data, nil
}

// Delete removes an object by key.
func (c *S3Client) Delete(ctx context.Context, fileID string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return apperrors.ServiceError("storage delete failed", err)
	}
	return nil
}

// List returns metadata for objects under prefix.
func (c *S3Client) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.ServiceError("storage list failed", err)
		}
		for _, obj := range page.Contents {
			info := FileInfo{
				ID:   aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			files = append(files, info)
		}
	}

	if files == nil {
		files = []FileInfo{}
	}
	return files, nil
}
