package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/GSA/notifications-admin-sub001/internal/storage"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	API       APIConfig       `mapstructure:"api"`
	Buckets   BucketsConfig   `mapstructure:"buckets"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Timezone is the service display timezone; all timestamps leave the
	// system converted into it.
	Timezone string `mapstructure:"timezone"`

	// DefaultServiceLimit caps upload row counts when the API reports no
	// per-service message limit.
	DefaultServiceLimit int `mapstructure:"default_service_limit"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port" validate:"required,min=1,max=65535"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required,uri"`
}

type APIConfig struct {
	HostName       string `mapstructure:"host_name" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

type BucketConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Region string `mapstructure:"region" validate:"required"`
}

type BucketsConfig struct {
	CSVUpload   BucketConfig `mapstructure:"csv_upload"`
	ContactList BucketConfig `mapstructure:"contact_list"`
	LogoUpload  BucketConfig `mapstructure:"logo_upload"`
}

type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// Secrets carries everything that must never live in the YAML file. Each
// bucket gets its own credential pair; they are never mixed.
type Secrets struct {
	SessionSecret   string `envconfig:"SESSION_SECRET" required:"true"`
	ClientUserName  string `envconfig:"API_CLIENT_USERNAME" required:"true"`
	ClientSecret    string `envconfig:"API_CLIENT_SECRET" required:"true"`
	CSVAccessKey    string `envconfig:"CSV_UPLOAD_ACCESS_KEY"`
	CSVSecretKey    string `envconfig:"CSV_UPLOAD_SECRET_KEY"`
	ContactListKey  string `envconfig:"CONTACT_LIST_ACCESS_KEY"`
	ContactListSec  string `envconfig:"CONTACT_LIST_SECRET_KEY"`
	LogoAccessKey   string `envconfig:"LOGO_UPLOAD_ACCESS_KEY"`
	LogoSecretKey   string `envconfig:"LOGO_UPLOAD_SECRET_KEY"`
}

func LoadConfig() (*Config, *Secrets, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("timezone", "America/New_York")
	viper.SetDefault("default_service_limit", 250000)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("api.timeoutSeconds", 30)
	viper.SetDefault("rate_limit.rate", 100)
	viper.SetDefault("rate_limit.burst", 200)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process("notify_admin", &secrets); err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &config, &secrets, nil
}

func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CSVUploadCredentials binds the CSV upload bucket to its credential pair.
func CSVUploadCredentials(cfg *Config, s *Secrets) storage.BucketCredentials {
	return storage.BucketCredentials{
		Bucket:          cfg.Buckets.CSVUpload.Name,
		Region:          cfg.Buckets.CSVUpload.Region,
		AccessKeyID:     s.CSVAccessKey,
		SecretAccessKey: s.CSVSecretKey,
	}
}

// ContactListCredentials binds the contact list bucket to its credential pair.
func ContactListCredentials(cfg *Config, s *Secrets) storage.BucketCredentials {
	return storage.BucketCredentials{
		Bucket:          cfg.Buckets.ContactList.Name,
		Region:          cfg.Buckets.ContactList.Region,
		AccessKeyID:     s.ContactListKey,
		SecretAccessKey: s.ContactListSec,
	}
}

// LogoUploadCredentials binds the logo bucket to its credential pair.
func LogoUploadCredentials(cfg *Config, s *Secrets) storage.BucketCredentials {
	return storage.BucketCredentials{
		Bucket:          cfg.Buckets.LogoUpload.Name,
		Region:          cfg.Buckets.LogoUpload.Region,
		AccessKeyID:     s.LogoAccessKey,
		SecretAccessKey: s.LogoSecretKey,
	}
}
