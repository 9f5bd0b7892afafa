package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geostage-labs/geostage-go/internal/platform/env"
)

// Config carries object-store credentials as an explicit value. It is
// loaded once at process start and passed down; nothing below cmd reads
// the environment, so concurrent runs against different accounts and
// tests with fake filesystems stay possible.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("GEOSTAGE_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:  env.String("GEOSTAGE_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: env.String("GEOSTAGE_MINIO_ACCESS_KEY", "geostage"),
		SecretKey: env.String("GEOSTAGE_MINIO_SECRET_KEY", "geostageminio"),
		Region:    env.String("GEOSTAGE_MINIO_REGION", "us-east-1"),
		UseSSL:    useSSL,
		Bucket:    env.String("GEOSTAGE_MINIO_BUCKET", "staging-data"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
