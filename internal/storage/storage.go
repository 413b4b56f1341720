// Package storage uploads listing photos to an S3-compatible object store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// Defaults match the bucket region the service was first deployed to.
const (
	DefaultEndpoint = "s3.us-west-1.amazonaws.com"
	DefaultRegion   = "us-west-1"
)

// ErrNotConfigured is returned by Upload when no bucket or credentials are set.
var ErrNotConfigured = errors.New("object storage is not configured")

// Config holds object storage settings.
type Config struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	UseSSL        bool   `yaml:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url"` // overrides the derived object URL
}

// File is an in-memory upload payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Client uploads files to a single bucket.
type Client struct {
	cfg    Config
	client *minio.Client // nil when not configured
}

// New creates a storage client. Missing bucket or credentials are not an
// error here; Upload reports them so the failure surfaces on first use.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	c := &Client{cfg: cfg}
	if !cfg.configured() {
		slog.Warn("object storage not configured; photo uploads will fail", "endpoint", cfg.Endpoint)
		return c, nil
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client for %s: %w", cfg.Endpoint, err)
	}
	c.client = mc
	return c, nil
}

func (cfg Config) configured() bool {
	return cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != ""
}

// Upload stores f under its original name and returns the object's public
// URL. It makes one PutObject call; failures are returned as-is.
func (c *Client) Upload(ctx context.Context, f File) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(f.Name) == "" {
		return "", fmt.Errorf("uploading photo: file name is required")
	}
	if len(f.Data) == 0 {
		return "", fmt.Errorf("uploading photo %s: file is empty", f.Name)
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := c.client.PutObject(ctx, c.cfg.Bucket, f.Name,
		bytes.NewReader(f.Data), int64(len(f.Data)),
		minio.PutObjectOptions{
			ContentType:        contentType,
			ContentDisposition: "inline",
		},
	)
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", f.Name, c.cfg.Bucket, err)
	}

	objectURL := c.ObjectURL(info.Key)
	slog.InfoContext(ctx, "photo uploaded", "bucket", c.cfg.Bucket, "key", info.Key, "size", info.Size, "url", objectURL)
	return objectURL, nil
}

// ObjectURL returns the public URL of key in the configured bucket.
func (c *Client) ObjectURL(key string) string {
	path := s3utils.EncodePath(key)

	if c.cfg.PublicBaseURL != "" {
		return strings.TrimRight(c.cfg.PublicBaseURL, "/") + "/" + path
	}

	scheme := "http"
	if c.cfg.UseSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: c.cfg.Endpoint}

	if s3utils.IsAmazonEndpoint(u) {
		// Virtual-hosted style: https://bucket.s3.region.amazonaws.com/key
		u.Host = c.cfg.Bucket + "." + u.Host
		return u.String() + "/" + path
	}
	return u.String() + "/" + c.cfg.Bucket + "/" + path
}
