// Package source opens JSON documents for scanning.
//
// A location is "-" for standard input, an http(s) URL, an s3://bucket/key
// object reference or a file path. Content compressed with gzip, zstd or
// lz4 is decompressed transparently based on its leading magic bytes.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	Stdin = "-"

	DefaultTimeout = 30 * time.Second
)

var (
	ErrInvalidLocation = errors.New("source: invalid location")
	ErrFetch           = errors.New("source: fetch failed")
	ErrNoEndpoint      = errors.New("source: s3 endpoint not configured")
)

// S3Config addresses an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	// PlainHTTP selects plain HTTP when Endpoint carries no scheme.
	PlainHTTP bool
}

type Options struct {
	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client
	// Stdin defaults to os.Stdin.
	Stdin io.Reader
	S3    S3Config
}

// Open returns the decompressed content at location. The caller must
// close it.
func Open(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	rc, err := openRaw(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	out, err := Decompress(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return out, nil
}

func openRaw(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	switch {
	case location == "":
		return nil, fmt.Errorf("%w: empty", ErrInvalidLocation)
	case location == Stdin:
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		return io.NopCloser(in), nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return openHTTP(ctx, location, opts.HTTPClient)
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := ParseS3(location)
		if err != nil {
			return nil, err
		}
		return openS3(ctx, bucket, key, opts.S3)
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
		}
		return os.Open(u.Path)
	case strings.Contains(location, "://"):
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidLocation, location)
	default:
		return os.Open(location)
	}
}

func openHTTP(ctx context.Context, location string, client *http.Client) (io.ReadCloser, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, location, resp.Status)
	}
	return resp.Body, nil
}

// ParseS3 splits s3://bucket/key.
func ParseS3(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %q is not an s3 location", ErrInvalidLocation, location)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidLocation, location)
	}
	return bucket, key, nil
}

// s3Endpoint strips any scheme from endpoint and reports whether TLS
// should be used.
func s3Endpoint(cfg S3Config) (string, bool, error) {
	if cfg.Endpoint == "" {
		return "", false, ErrNoEndpoint
	}
	if !strings.Contains(cfg.Endpoint, "://") {
		return cfg.Endpoint, !cfg.PlainHTTP, nil
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return "", false, fmt.Errorf("%w: endpoint: %w", ErrInvalidLocation, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("%w: endpoint %q has no host", ErrInvalidLocation, cfg.Endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func openS3(ctx context.Context, bucket, key string, cfg S3Config) (io.ReadCloser, error) {
	endpoint, secure, err := s3Endpoint(cfg)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 client: %w", ErrFetch, err)
	}

	// GetObject is lazy; request errors surface on the first read.
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: s3://%s/%s: %w", ErrFetch, bucket, key, err)
	}
	return obj, nil
}
