package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string // "docsearch"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client mirrors archive snapshots in an S3/MinIO bucket.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a new S3/MinIO client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		minioClient: minioClient,
		bucket:      config.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectName returns the object key an archive snapshot is stored under.
func ObjectName(filename string) string {
	return path.Join("archives", filename)
}

// HasArchive reports whether a snapshot with the given filename is in the bucket.
func (c *Client) HasArchive(ctx context.Context, filename string) (bool, error) {
	_, err := c.minioClient.StatObject(ctx, c.bucket, ObjectName(filename), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat archive: %w", err)
}

// DownloadArchive copies a mirrored snapshot to a local file.
func (c *Client) DownloadArchive(ctx context.Context, filename, dest string) error {
	err := c.minioClient.FGetObject(ctx, c.bucket, ObjectName(filename), dest, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}
	return nil
}

// UploadArchive stores a local snapshot in the bucket.
func (c *Client) UploadArchive(ctx context.Context, filename, src string) error {
	_, err := c.minioClient.FPutObject(ctx, c.bucket, ObjectName(filename), src, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}
	return nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
