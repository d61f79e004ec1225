// Package minio stores and fetches structure files and rendered images in
// MinIO or any S3-compatible object store.
package minio

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
)

// ObjectAPI is the subset of the MinIO SDK the store uses. GetObject returns
// a plain ReadCloser so that tests can fake it; sdkAdapter bridges the SDK's
// concrete *minio.Object.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

type sdkAdapter struct {
	*minio.Client
}

func (a sdkAdapter) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.Client.GetObject(ctx, bucketName, objectName, opts)
}

// Config holds the connection parameters.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	// Bucket is used when a request names no bucket.
	Bucket string `mapstructure:"bucket"`
}

func applyDefaults(cfg *Config) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
}

// Client is safe for concurrent use.
type Client struct {
	api    ObjectAPI
	config Config
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

var ErrMinIOClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")

// NewClient builds a client for cfg. The connection is opened lazily; no
// request is made here.
func NewClient(cfg Config, log logging.Logger) (*Client, error) {
	applyDefaults(&cfg)
	if cfg.Endpoint == "" {
		return nil, errors.InvalidParam("minio endpoint is required")
	}
	sdk, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}
	return NewClientWithAPI(sdkAdapter{sdk}, cfg, log), nil
}

// NewClientWithAPI wraps an existing ObjectAPI.
func NewClientWithAPI(api ObjectAPI, cfg Config, log logging.Logger) *Client {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}
	log.Info("MinIO client configured", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return &Client{api: api, config: cfg, logger: log.Named("minio")}
}

func (c *Client) bucket(b string) string {
	if b == "" {
		return c.config.Bucket
	}
	return b
}

func (c *Client) check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrMinIOClientClosed
	}
	return nil
}

// notFound reports whether err is an S3 missing-object or missing-bucket
// response.
func notFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

// Stat returns the metadata of one object.
func (c *Client) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := c.check(); err != nil {
		return ObjectInfo{}, err
	}
	bucket = c.bucket(bucket)
	info, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if notFound(err) {
			return ObjectInfo{}, errors.New(errors.ErrCodeNotFound, "object not found").WithDetail(bucket + "/" + key)
		}
		return ObjectInfo{}, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "stat object")
	}
	return toInfo(bucket, info), nil
}

// Open streams one object. Objects larger than maxBytes are refused before
// any data is read; maxBytes <= 0 disables the check.
func (c *Client) Open(ctx context.Context, bucket, key string, maxBytes int64) (io.ReadCloser, ObjectInfo, error) {
	info, err := c.Stat(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return nil, info, errors.Newf(errors.ErrCodeSourceTooLarge, "object is %d bytes, limit is %d", info.Size, maxBytes)
	}
	rc, err := c.api.GetObject(ctx, info.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, info, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "get object")
	}
	c.logger.Debug("object opened",
		logging.String("bucket", info.Bucket),
		logging.String("key", key),
		logging.Int64("size", info.Size))
	return rc, info, nil
}

// Put stores size bytes from r. size may be -1 for a stream of unknown length.
func (c *Client) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error) {
	if err := c.check(); err != nil {
		return ObjectInfo{}, err
	}
	bucket = c.bucket(bucket)
	if bucket == "" || strings.TrimSpace(key) == "" {
		return ObjectInfo{}, errors.InvalidParam("bucket and key are required")
	}
	up, err := c.api.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return ObjectInfo{}, errors.Wrap(err, errors.ErrCodeInternal, "put object")
	}
	c.logger.Info("object stored",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.Int64("size", up.Size))
	return ObjectInfo{Bucket: bucket, Key: key, Size: up.Size, ContentType: contentType, ETag: up.ETag}, nil
}

// EnsureBucket creates bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	if err := c.check(); err != nil {
		return err
	}
	bucket = c.bucket(bucket)
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create bucket").WithDetail(bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", bucket))
	return nil
}

// List returns the objects under prefix, recursively.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	bucket = c.bucket(bucket)
	var out []ObjectInfo
	for obj := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeSourceUnavailable, "list objects")
		}
		out = append(out, toInfo(bucket, obj))
	}
	return out, nil
}

func toInfo(bucket string, o minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Bucket:       bucket,
		Key:          o.Key,
		Size:         o.Size,
		ContentType:  o.ContentType,
		ETag:         o.ETag,
		LastModified: o.LastModified,
	}
}

// Name identifies the store in readiness reports.
func (c *Client) Name() string { return "minio" }

// Check verifies that the default bucket is reachable.
func (c *Client) Check(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	ok, err := c.api.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	if !ok {
		return errors.New(errors.ErrCodeServiceUnavailable, "bucket does not exist").WithDetail(c.config.Bucket)
	}
	return nil
}

// Close makes every later call fail.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

//Personal.AI order the ending
