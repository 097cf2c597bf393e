package storage

import (
	"context"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
)

const (
	DefaultPresignExpiry = time.Hour
	DefaultRegion        = "us-east-1"
	providerMinio        = "object storage"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	region          string
	useSSL          bool
	expiry          time.Duration
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		region: DefaultRegion,
		useSSL: false,
		expiry: DefaultPresignExpiry,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type minioIssuer struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioIssuer(opts ...MinioOpts) (URLIssuer, error) {
	cfg := newConfig(opts...)
	if cfg.bucket == "" {
		return nil, errdefs.NewErrConfiguration("recordings bucket is not set")
	}

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		// without a region minio queries the bucket location before signing
		Region: cfg.region,
	})
	if err != nil {
		return nil, errdefs.NewErrConfiguration("creating object storage client: %v", err)
	}

	return &minioIssuer{cfg: cfg, client: minioClient}, nil
}

// ReadURL presigns a GET for locator. Signing is local, so the object is not checked for existence here.
func (m *minioIssuer) ReadURL(ctx context.Context, locator string) (string, error) {
	if locator == "" {
		return "", errdefs.NewErrNotFound("audio object", locator)
	}

	u, err := m.client.PresignedGetObject(ctx, m.cfg.bucket, locator, m.cfg.expiry, url.Values{})
	if err != nil {
		return "", errdefs.NewErrUpstream(providerMinio, err)
	}
	return u.String(), nil
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithRegion(region string) MinioOpts {
	return func(c *minioConfig) {
		if region != "" {
			c.region = region
		}
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

func WithExpiry(expiry time.Duration) MinioOpts {
	return func(c *minioConfig) {
		if expiry > 0 {
			c.expiry = expiry
		}
	}
}
