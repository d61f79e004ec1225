// Package source opens structure text by URI. A bare path or file:// URI
// reads the local filesystem, http(s):// downloads, and s3://bucket/key reads
// from the configured object store. Decompression is left to the parser.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/storage/minio"
	"github.com/turtacn/molview/pkg/errors"
)

// ObjectStore is the part of *minio.Client the s3 scheme needs.
type ObjectStore interface {
	Open(ctx context.Context, bucket, key string, maxBytes int64) (io.ReadCloser, minio.ObjectInfo, error)
}

// Metrics receives one observation per fetch. *prometheus.ViewerMetrics
// satisfies it.
type Metrics interface {
	RecordFetch(scheme, status string, n int64)
}

// Config bounds remote reads.
type Config struct {
	HTTPTimeout time.Duration
	MaxBytes    int64
}

// Router dispatches Open by URI scheme.
type Router struct {
	cfg     Config
	client  *http.Client
	store   ObjectStore
	metrics Metrics
	logger  logging.Logger
}

// Option configures a Router.
type Option func(*Router)

func WithHTTPClient(c *http.Client) Option { return func(r *Router) { r.client = c } }

// WithObjectStore enables the s3 scheme.
func WithObjectStore(s ObjectStore) Option { return func(r *Router) { r.store = s } }

func WithMetrics(m Metrics) Option { return func(r *Router) { r.metrics = m } }

func WithLogger(l logging.Logger) Option { return func(r *Router) { r.logger = l } }

// NewRouter builds a Router. Without WithObjectStore, s3 URIs are refused.
func NewRouter(cfg Config, opts ...Option) *Router {
	r := &Router{cfg: cfg, logger: logging.NewNopLogger()}
	for _, o := range opts {
		o(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	r.logger = r.logger.Named("source")
	return r
}

// Open returns the bytes behind uri. The caller closes the reader.
func (r *Router) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	scheme, target, err := split(uri)
	if err != nil {
		r.record("invalid", "error", 0)
		return nil, err
	}

	var rc io.ReadCloser
	switch scheme {
	case "file":
		rc, err = r.openFile(target.Path)
	case "http", "https":
		rc, err = r.openHTTP(ctx, target)
	case "s3":
		rc, err = r.openObject(ctx, target)
	default:
		err = errors.Newf(errors.ErrCodeSourceUnsupported, "unsupported source scheme %q", scheme)
	}
	if err != nil {
		r.record(scheme, "error", 0)
		r.logger.Warn("source open failed", logging.String("uri", uri), logging.Err(err))
		return nil, err
	}

	r.logger.Debug("source opened", logging.String("uri", uri))
	return &countingReader{rc: rc, limit: r.cfg.MaxBytes, done: func(n int64, ok bool) {
		status := "ok"
		if !ok {
			status = "too_large"
		}
		r.record(scheme, status, n)
	}}, nil
}

func (r *Router) record(scheme, status string, n int64) {
	if r.metrics != nil {
		r.metrics.RecordFetch(scheme, status, n)
	}
}

// split resolves uri into a scheme and a parsed URL. Anything without "://"
// is a local path.
func split(uri string) (string, *url.URL, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", nil, errors.InvalidParam("source uri is empty")
	}
	if !strings.Contains(uri, "://") {
		return "file", &url.URL{Scheme: "file", Path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid source uri")
	}
	return strings.ToLower(u.Scheme), u, nil
}

func (r *Router) openFile(path string) (io.ReadCloser, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "cannot stat file").WithDetail(path)
	}
	if fi.IsDir() {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "path is a directory").WithDetail(path)
	}
	if r.cfg.MaxBytes > 0 && fi.Size() > r.cfg.MaxBytes {
		return nil, errors.Newf(errors.ErrCodeSourceTooLarge, "file is %d bytes, limit is %d", fi.Size(), r.cfg.MaxBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "cannot open file").WithDetail(path)
	}
	return f, nil
}

func (r *Router) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid source uri")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "download failed")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf(errors.ErrCodeSourceUnavailable, "download returned %s", resp.Status).WithDetail(u.String())
	}
	if r.cfg.MaxBytes > 0 && resp.ContentLength > r.cfg.MaxBytes {
		resp.Body.Close()
		return nil, errors.Newf(errors.ErrCodeSourceTooLarge, "content length %d exceeds limit %d", resp.ContentLength, r.cfg.MaxBytes)
	}
	return resp.Body, nil
}

func (r *Router) openObject(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if r.store == nil {
		return nil, errors.New(errors.ErrCodeSourceUnsupported, "object storage is not configured")
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, errors.InvalidParam(fmt.Sprintf("s3 uri %q needs a bucket and a key", u.String()))
	}
	rc, _, err := r.store.Open(ctx, u.Host, key, r.cfg.MaxBytes)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "object not found").WithDetail(u.String())
		}
		return nil, err
	}
	return rc, nil
}

// countingReader enforces the byte limit on streams whose size was not known
// up front and reports the total once on Close.
type countingReader struct {
	rc       io.ReadCloser
	limit    int64
	n        int64
	exceeded bool
	closed   bool
	done     func(n int64, ok bool)
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.exceeded {
		return 0, errors.Newf(errors.ErrCodeSourceTooLarge, "source exceeds %d bytes", c.limit)
	}
	n, err := c.rc.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		c.exceeded = true
		return n, errors.Newf(errors.ErrCodeSourceTooLarge, "source exceeds %d bytes", c.limit)
	}
	return n, err
}

func (c *countingReader) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.done(c.n, !c.exceeded)
	return c.rc.Close()
}

//Personal.AI order the ending
