package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetStoreEnv(t *testing.T) {
	t.Helper()
	keys := []string{EnvEndpoint, EnvAccessKey, EnvSecretKey, EnvBucket, EnvSecure, EnvRegion}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadStoreConfigFromEnv(t *testing.T) {
	unsetStoreEnv(t)
	t.Setenv(EnvEndpoint, "localhost:9000")
	t.Setenv(EnvAccessKey, "minio")
	t.Setenv(EnvSecretKey, "minio123")
	t.Setenv(EnvSecure, "true")

	cfg, err := LoadStoreConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StoreConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "pointnav-datasets",
		Secure:    true,
		Region:    "us-east-1",
	}, cfg)
}

func TestLoadStoreConfigFromFile(t *testing.T) {
	unsetStoreEnv(t)
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte(
		"POINTNAV_S3_ENDPOINT=store:9000\nPOINTNAV_S3_BUCKET=episodes\n"), 0o644))

	cfg, err := LoadStoreConfig(env)
	require.NoError(t, err)
	assert.Equal(t, "store:9000", cfg.Endpoint)
	assert.Equal(t, "episodes", cfg.Bucket)
	assert.False(t, cfg.Secure)
}

func TestLoadStoreConfigErrors(t *testing.T) {
	unsetStoreEnv(t)
	_, err := LoadStoreConfig()
	assert.ErrorContains(t, err, EnvEndpoint)

	t.Setenv(EnvEndpoint, "localhost:9000")
	t.Setenv(EnvSecure, "maybe")
	_, err = LoadStoreConfig()
	assert.ErrorContains(t, err, EnvSecure)
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(StoreConfig{Endpoint: "localhost:9000", Bucket: "b", Region: "us-east-1"})
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewPublisher(StoreConfig{Endpoint: "http://localhost:9000"})
	assert.Error(t, err, "endpoint must not carry a scheme")
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "val/val.json.gz", ObjectKey(filepath.Join("data", "datasets", "val", "val.json.gz")))
}
