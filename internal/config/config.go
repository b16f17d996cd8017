package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverPostgres  = "postgres"
	DriverMongo     = "mongo"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server           ServerConfig           `yaml:"server"`
	Database         DatabaseConfig         `yaml:"database"`
	Redis            RedisConfig            `yaml:"redis"`
	AWS              AWSConfig              `yaml:"aws"`
	SecondaryStorage SecondaryStorageConfig `yaml:"secondary_storage"`
	JWT              JWTConfig              `yaml:"jwt"`
	Log              LogConfig              `yaml:"log"`
	Eviction         EvictionConfig         `yaml:"eviction"`
	Cleanup          CleanupConfig          `yaml:"cleanup"`
	Links            LinksConfig            `yaml:"links"`
	Tracing          TracingConfig          `yaml:"tracing"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds document store configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	FirestoreProject string `yaml:"firestore_project"`
}

// RedisConfig holds the identity registry connection
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AWSConfig holds the primary blob backend configuration
type AWSConfig struct {
	Region     string `yaml:"region"`
	S3Bucket   string `yaml:"s3_bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`
	// PublicURLPrefixes are the URL prefixes under which objects of the bucket
	// are served; the object key is whatever follows the prefix.
	PublicURLPrefixes []string `yaml:"public_url_prefixes"`
}

// SecondaryStorageConfig holds the optional S3-compatible public object store
type SecondaryStorageConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"use_ssl"`
	PathMarker string `yaml:"path_marker"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// EvictionConfig tunes the batched delete loop
type EvictionConfig struct {
	BatchSize        int           `yaml:"batch_size"`
	MaxLoops         int           `yaml:"max_loops"`
	Pause            time.Duration `yaml:"pause"`
	PhotoConcurrency int           `yaml:"photo_concurrency"`
	Timeout          time.Duration `yaml:"timeout"`
}

// CleanupConfig holds the soft-delete sweep settings
type CleanupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	Timezone      string `yaml:"timezone"`
	RetentionDays int    `yaml:"retention_days"`
	ChunkSize     int    `yaml:"chunk_size"`
}

// LinksConfig holds short link settings
type LinksConfig struct {
	BaseURL     string `yaml:"base_url"`
	FallbackURL string `yaml:"fallback_url"`
	AppScheme   string `yaml:"app_scheme"`
	DefaultImg  string `yaml:"default_image"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	SamplerRatio float64 `yaml:"sampler_ratio"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Minute
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MongoDatabase == "" {
		c.Database.MongoDatabase = "app"
	}
	if c.SecondaryStorage.PathMarker == "" {
		c.SecondaryStorage.PathMarker = "/storage/v1/object/public/"
	}
	if len(c.AWS.PublicURLPrefixes) == 0 && c.AWS.S3Bucket != "" {
		c.AWS.PublicURLPrefixes = []string{
			fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", c.AWS.S3Bucket, c.AWS.Region),
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Eviction.BatchSize == 0 {
		c.Eviction.BatchSize = 450
	}
	if c.Eviction.MaxLoops == 0 {
		c.Eviction.MaxLoops = 50
	}
	if c.Eviction.Pause == 0 {
		c.Eviction.Pause = 50 * time.Millisecond
	}
	if c.Eviction.PhotoConcurrency == 0 {
		c.Eviction.PhotoConcurrency = 8
	}
	if c.Eviction.Timeout == 0 {
		c.Eviction.Timeout = 9 * time.Minute
	}
	if c.Cleanup.Schedule == "" {
		c.Cleanup.Schedule = "0 3 * * *"
	}
	if c.Cleanup.Timezone == "" {
		c.Cleanup.Timezone = "UTC"
	}
	if c.Cleanup.RetentionDays == 0 {
		c.Cleanup.RetentionDays = 30
	}
	if c.Cleanup.ChunkSize == 0 {
		c.Cleanup.ChunkSize = 50
	}
	if c.Links.FallbackURL == "" {
		c.Links.FallbackURL = c.Links.BaseURL
	}
	if c.Links.AppScheme == "" {
		c.Links.AppScheme = "app"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "photo-social-backend"
	}
	if c.Tracing.SamplerRatio == 0 {
		c.Tracing.SamplerRatio = 1
	}
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("database.mongo_uri is required for the mongo driver")
		}
	case DriverFirestore:
		if c.Database.FirestoreProject == "" {
			return fmt.Errorf("database.firestore_project is required for the firestore driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Eviction.BatchSize < 1 || c.Eviction.BatchSize > 500 {
		return fmt.Errorf("eviction.batch_size must be between 1 and 500, got %d", c.Eviction.BatchSize)
	}
	if c.Cleanup.RetentionDays < 0 {
		return fmt.Errorf("cleanup.retention_days must not be negative")
	}
	if c.SecondaryStorage.Enabled && c.SecondaryStorage.Endpoint == "" {
		return fmt.Errorf("secondary_storage.endpoint is required when enabled")
	}
	if _, err := time.LoadLocation(c.Cleanup.Timezone); err != nil {
		return fmt.Errorf("invalid cleanup.timezone: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
