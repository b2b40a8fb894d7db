package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	STT        STTConfig
	Capture    CaptureConfig
	Presence   PresenceConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"huddle_pipeline"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"change-me-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"12h"`
}

// StorageConfig holds object storage configuration for turn clips
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"huddle-clips"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL" default:""`
}

// ExtractionConfig holds structured-extraction service configuration
type ExtractionConfig struct {
	BaseURL string        `envconfig:"EXTRACTION_BASE_URL" default:"https://api.extraction.local"`
	APIKey  string        `envconfig:"EXTRACTION_API_KEY" default:""`
	Timeout time.Duration `envconfig:"EXTRACTION_TIMEOUT" default:"45s"`
}

// STTConfig holds speech-to-text configuration
type STTConfig struct {
	APIKey  string        `envconfig:"ASSEMBLYAI_API_KEY" default:""`
	Timeout time.Duration `envconfig:"STT_TIMEOUT" default:"90s"`
	Enabled bool          `envconfig:"STT_ENABLED" default:"true"`
}

// CaptureConfig holds voice-activity-detection and recording parameters.
// Thresholds are RMS loudness in [0,1]; the start bar sits above the stop
// bar so natural pauses inside a burst of speech do not end the turn.
type CaptureConfig struct {
	StartThreshold float64       `envconfig:"VAD_START_THRESHOLD" default:"0.065"`
	StopThreshold  float64       `envconfig:"VAD_STOP_THRESHOLD" default:"0.035"`
	MinCapture     time.Duration `envconfig:"VAD_MIN_CAPTURE" default:"800ms"`
	MinSilence     time.Duration `envconfig:"VAD_MIN_SILENCE" default:"1200ms"`
	MaxCapture     time.Duration `envconfig:"VAD_MAX_CAPTURE" default:"60s"`
	SampleInterval time.Duration `envconfig:"VAD_SAMPLE_INTERVAL" default:"100ms"`
	MinViableClip  time.Duration `envconfig:"CAPTURE_MIN_VIABLE_CLIP" default:"500ms"`
	UploadFloor    time.Duration `envconfig:"CAPTURE_UPLOAD_FLOOR" default:"3s"`
}

// PresenceConfig holds liveness reaping configuration
type PresenceConfig struct {
	SweepInterval time.Duration `envconfig:"PRESENCE_SWEEP_INTERVAL" default:"30s"`
	DemoteAfter   time.Duration `envconfig:"PRESENCE_DEMOTE_AFTER" default:"2m"`
	EvictAfter    time.Duration `envconfig:"PRESENCE_EVICT_AFTER" default:"10m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Capture.StartThreshold <= c.Capture.StopThreshold {
		return fmt.Errorf("VAD_START_THRESHOLD must be greater than VAD_STOP_THRESHOLD")
	}
	if c.Capture.MaxCapture <= c.Capture.MinCapture {
		return fmt.Errorf("VAD_MAX_CAPTURE must be greater than VAD_MIN_CAPTURE")
	}
	if c.Capture.UploadFloor < c.Capture.MinViableClip {
		return fmt.Errorf("CAPTURE_UPLOAD_FLOOR must not be below CAPTURE_MIN_VIABLE_CLIP")
	}
	if c.Presence.EvictAfter <= c.Presence.DemoteAfter {
		return fmt.Errorf("PRESENCE_EVICT_AFTER must be greater than PRESENCE_DEMOTE_AFTER")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
