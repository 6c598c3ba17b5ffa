package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderSul = "sul"
	ProviderGCS = "gcs"
	ProviderS3  = "s3"

	DefaultCORSOriginPattern = `(http.*localhost.*|https?:\/\/.*cardmatching.ovh.*)`
)

type Config struct {
	Addr        string `yaml:"addr" validate:"required"`
	DatabaseURL string `yaml:"database_url" validate:"required"`

	OAuthSignKey       string `yaml:"oauth_sign_key" validate:"required"`
	OAuthTokenProvider string `yaml:"oauth_token_provider" validate:"required,url"`

	HostingProvider string        `yaml:"hosting_provider" validate:"oneof=sul gcs s3"`
	HostingTimeout  time.Duration `yaml:"hosting_timeout" validate:"gt=0"`

	SulKey     string `yaml:"s_ul_key" validate:"required_if=HostingProvider sul"`
	SulBaseURL string `yaml:"s_ul_base_url" validate:"omitempty,url"`

	GCSProjectID       string `yaml:"gcs_project_id"`
	GCSBucketName      string `yaml:"gcs_bucket_name" validate:"required_if=HostingProvider gcs"`
	GCSUploadPath      string `yaml:"gcs_upload_path"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`

	S3Bucket string `yaml:"s3_bucket" validate:"required_if=HostingProvider s3"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"aws_region" validate:"required_if=HostingProvider s3"`

	CORSOriginPattern string `yaml:"cors_origin_pattern"`
	MaxUploadBytes    int    `yaml:"max_upload_bytes" validate:"gt=0"`

	LogLevel  string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`
}

func Default() *Config {
	return &Config{
		Addr:              ":8000",
		DatabaseURL:       "./card_images.db",
		HostingProvider:   ProviderSul,
		HostingTimeout:    30 * time.Second,
		SulBaseURL:        "https://s-ul.eu",
		GCSUploadPath:     "card-images/",
		CORSOriginPattern: DefaultCORSOriginPattern,
		MaxUploadBytes:    10 * 1024 * 1024,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env file
// and the process environment, in that order of increasing precedence.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "ADDR")
	// DATABASE_IP is the name older deployments used.
	setString(&c.DatabaseURL, "DATABASE_IP")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.OAuthSignKey, "OAUTH_SIGN_KEY")
	setString(&c.OAuthTokenProvider, "OAUTH_TOKEN_PROVIDER")
	setString(&c.HostingProvider, "HOSTING_PROVIDER")
	setString(&c.SulKey, "S_UL_KEY")
	setString(&c.SulBaseURL, "S_UL_BASE_URL")
	setString(&c.GCSProjectID, "GCS_PROJECT_ID")
	setString(&c.GCSBucketName, "GCS_BUCKET_NAME")
	setString(&c.GCSUploadPath, "GCS_UPLOAD_PATH")
	setString(&c.GCSCredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Prefix, "S3_PREFIX")
	setString(&c.S3Region, "AWS_REGION")
	setString(&c.CORSOriginPattern, "CORS_ORIGIN_PATTERN")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("HOSTING_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOSTING_TIMEOUT: %w", err)
		}
		c.HostingTimeout = d
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}

	c.OAuthTokenProvider = strings.TrimRight(c.OAuthTokenProvider, "/")
	c.SulBaseURL = strings.TrimRight(c.SulBaseURL, "/")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
