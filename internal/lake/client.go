package lake

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
)

// Client wraps the MinIO SDK for the single bucket the pipeline works in.
// Like the warehouse session, one Client is built at startup and shared.
type Client struct {
	mc     *minio.Client
	bucket string
	logger *logrus.Logger
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

func NewClient(opts Options, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.New()
	}

	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"endpoint": opts.Endpoint,
		"bucket":   opts.Bucket,
	}).Info("connected to object store")

	return &Client{mc: mc, bucket: opts.Bucket, logger: logger}, nil
}

// Ping verifies the bucket exists and the store is reachable. Total
// unavailability of the object store aborts the run before any batch runs.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to reach object store: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", c.bucket)
	}
	return nil
}

// ListParquet returns the s3:// URIs of all parquet objects under the given
// prefix, in listing order.
func (c *Client) ListParquet(ctx context.Context, prefix string) ([]string, error) {
	var uris []string

	objects := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s/: %w", prefix, obj.Err)
		}
		if !strings.HasSuffix(obj.Key, constants.ParquetSuffix) {
			continue
		}
		uris = append(uris, c.URI(obj.Key))
	}

	return uris, nil
}

// URI builds the s3:// URI DuckDB uses to address an object in the bucket.
func (c *Client) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", c.bucket, key)
}

// Bucket returns the bucket name the client is scoped to.
func (c *Client) Bucket() string {
	return c.bucket
}
