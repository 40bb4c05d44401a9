package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Environment variables read by LoadStoreConfig.
const (
	EnvEndpoint  = "POINTNAV_S3_ENDPOINT"
	EnvAccessKey = "POINTNAV_S3_ACCESS_KEY"
	EnvSecretKey = "POINTNAV_S3_SECRET_KEY"
	EnvBucket    = "POINTNAV_S3_BUCKET"
	EnvSecure    = "POINTNAV_S3_SECURE"
	EnvRegion    = "POINTNAV_S3_REGION"
)

// StoreConfig locates an S3 compatible object store.
type StoreConfig struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Bucket    string `default:"pointnav-datasets"`
	Secure    bool
	Region    string `default:"us-east-1"`
}

// LoadStoreConfig reads the store settings from the environment after
// loading envFiles with godotenv. Missing env files are skipped; variables
// already set in the environment win.
func LoadStoreConfig(envFiles ...string) (StoreConfig, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return StoreConfig{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg StoreConfig
	if err := defaults.Set(&cfg); err != nil {
		return StoreConfig{}, fmt.Errorf("applying store defaults: %w", err)
	}
	cfg.Endpoint = os.Getenv(EnvEndpoint)
	cfg.AccessKey = os.Getenv(EnvAccessKey)
	cfg.SecretKey = os.Getenv(EnvSecretKey)
	if v := os.Getenv(EnvBucket); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv(EnvRegion); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv(EnvSecure); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return StoreConfig{}, fmt.Errorf("%s=%q: %w", EnvSecure, v, err)
		}
		cfg.Secure = secure
	}

	if cfg.Endpoint == "" {
		return StoreConfig{}, fmt.Errorf("%s is not set", EnvEndpoint)
	}
	return cfg, nil
}

// Publisher uploads dataset files to an object store bucket.
type Publisher struct {
	client *minio.Client
	cfg    StoreConfig
}

// Upload describes a stored dataset object.
type Upload struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	ETag   string `json:"etag"`
}

// NewPublisher creates a client for cfg. No request is made until Publish.
func NewPublisher(cfg StoreConfig) (*Publisher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}
	return &Publisher{client: client, cfg: cfg}, nil
}

// ObjectKey is the default key for a dataset file: its split directory and
// file name, e.g. "val/val.json.gz".
func ObjectKey(path string) string {
	return filepath.ToSlash(filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path)))
}

// Publish uploads the file at localPath under key, creating the bucket if
// it does not exist.
func (p *Publisher) Publish(ctx context.Context, localPath, key string) (Upload, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return Upload{}, err
	}
	info, err := p.client.FPutObject(ctx, p.cfg.Bucket, key, localPath, minio.PutObjectOptions{
		ContentType:     "application/json",
		ContentEncoding: "gzip",
	})
	if err != nil {
		return Upload{}, fmt.Errorf("uploading %s to %s/%s: %w", localPath, p.cfg.Bucket, key, err)
	}
	return Upload{Bucket: info.Bucket, Key: info.Key, Size: info.Size, ETag: info.ETag}, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", p.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", p.cfg.Bucket, err)
	}
	return nil
}
