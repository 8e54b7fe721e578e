package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Keys resolved through the provider chain (environment first, then the
// secrets store).
const (
	KeyMongoHost         = "MONGO_HOST"
	KeyAccessKey         = "AWS_ACCESS_KEY_ID"
	KeySecretKey         = "AWS_SECRET_ACCESS_KEY"
	KeyBucketName        = "BUCKET_NAME"
	KeyTelemetryEndpoint = "PYROSCOPE_SERVER_ADDRESS"
)

// Config is built once at start-up and passed to the components that need it.
type Config struct {
	MongoHost        string `validate:"required"`
	Database         string `validate:"required"`
	PhotosCollection string `validate:"required"`
	FacesCollection  string `validate:"required"`

	AWSRegion    string `validate:"required"`
	AWSAccessKey string `validate:"required_with=AWSSecretKey"`
	AWSSecretKey string `validate:"required_with=AWSAccessKey"`
	S3Endpoint   string `validate:"omitempty,url"`
	BucketName   string

	TelemetryEndpoint string
	Region            string

	Port       string `validate:"required,numeric"`
	StagingDir string `validate:"required"`
	RateLimit  int    `validate:"min=1"`
	LogLevel   string `validate:"oneof=trace debug info warn warning error fatal panic"`

	// Unresolved lists the chain keys that fell back to their default,
	// together with the reason.
	Unresolved map[string]error `validate:"-"`
}

// Load resolves every setting. Chain keys go through p; the rest are plain
// environment variables with defaults.
func Load(p Provider) (*Config, error) {
	cfg := &Config{Unresolved: map[string]error{}}

	cfg.MongoHost = cfg.lookup(p, KeyMongoHost, "localhost")
	cfg.AWSAccessKey = cfg.lookup(p, KeyAccessKey, "")
	cfg.AWSSecretKey = cfg.lookup(p, KeySecretKey, "")
	cfg.BucketName = cfg.lookup(p, KeyBucketName, "")
	cfg.TelemetryEndpoint = cfg.lookup(p, KeyTelemetryEndpoint, "")

	cfg.Database = env("MONGO_DATABASE", "nill-home")
	cfg.PhotosCollection = env("PHOTOS_COLLECTION", "nill-home-photos")
	cfg.FacesCollection = env("FACES_COLLECTION", "nill-home-faces")
	cfg.AWSRegion = env("AWS_REGION", "us-east-1")
	cfg.S3Endpoint = env("S3_ENDPOINT", "")
	cfg.Region = env("REGION", "")
	cfg.Port = env("PORT", "8007")
	cfg.StagingDir = env("STAGING_DIR", os.TempDir())
	cfg.LogLevel = env("LOG_LEVEL", "info")

	limit, err := strconv.Atoi(env("RATE_LIMIT", "120"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	cfg.RateLimit = limit

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) lookup(p Provider, key, def string) string {
	v, err := p.Get(key)
	if err != nil || v == "" {
		if err == nil {
			err = fmt.Errorf("%s: %w", key, ErrMissing)
		}
		c.Unresolved[key] = err
		return def
	}
	return v
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
