// Package config loads the YAML configuration shared by the API and the AI
// worker. Environment variables override any key, e.g. AUTH_LOGINWINDOW=30m.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/slighter12/go-lib/database/postgres"
)

// configDirEnv points New at an explicit configuration directory.
const configDirEnv = "GLOBALCHEK_CONFIG_DIR"

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Version     string `json:"version" yaml:"version"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		FrontendURL        string `json:"frontendUrl" yaml:"frontendUrl"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Database tunes how the binaries use Postgres
	Database *DatabaseConfig `json:"database" yaml:"database"`

	SecretKey struct {
		Access  string `json:"access" yaml:"access"`
		Refresh string `json:"refresh" yaml:"refresh"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// RateLimit applies to every route under /api
	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// Redis backs the login and 2FA attempt limiter. Optional.
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	AI *AIConfig `json:"ai" yaml:"ai"`

	Verification *VerificationConfig `json:"verification" yaml:"verification"`

	Storage *StorageConfig `json:"storage" yaml:"storage"`

	// QRCode configuration for 2FA provisioning images
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`

	// Firebase configuration for push notifications
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// PubSub configuration for event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// DatabaseConfig defines startup behaviour of the Postgres connection
type DatabaseConfig struct {
	// AutoMigrate creates or updates the tables on start. Meant for development.
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`

	// ConnectRetries bounds the start-up pings while Postgres comes up
	ConnectRetries int `json:"connectRetries" yaml:"connectRetries"`

	// SlowQueryThreshold logs statements slower than this as warnings
	SlowQueryThreshold time.Duration `json:"slowQueryThreshold" yaml:"slowQueryThreshold"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost        int           `json:"bcryptCost" yaml:"bcryptCost"`
	AccessTokenTTL    time.Duration `json:"accessTokenTtl" yaml:"accessTokenTtl"`
	RefreshTokenTTL   time.Duration `json:"refreshTokenTtl" yaml:"refreshTokenTtl"`
	PasswordMinLength int           `json:"passwordMinLength" yaml:"passwordMinLength"`
	TOTPIssuer        string        `json:"totpIssuer" yaml:"totpIssuer"`
	LoginMaxAttempts  int           `json:"loginMaxAttempts" yaml:"loginMaxAttempts"`
	LoginWindow       time.Duration `json:"loginWindow" yaml:"loginWindow"`
	SessionCleanup    time.Duration `json:"sessionCleanup" yaml:"sessionCleanup"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// RateLimitConfig defines the per-IP request budget
type RateLimitConfig struct {
	Requests int           `json:"requests" yaml:"requests"`
	Window   time.Duration `json:"window" yaml:"window"`
}

// RedisConfig defines the Redis connection
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// AIConfig defines the vision model provider
type AIConfig struct {
	APIKey     string        `json:"apiKey" yaml:"apiKey"`
	BaseURL    string        `json:"baseUrl" yaml:"baseUrl"`
	Model      string        `json:"model" yaml:"model"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries int           `json:"maxRetries" yaml:"maxRetries"`

	// Consecutive failures before the breaker opens
	BreakerFailures int `json:"breakerFailures" yaml:"breakerFailures"`

	// How long the breaker stays open before probing again
	BreakerCooldown time.Duration `json:"breakerCooldown" yaml:"breakerCooldown"`
}

// VerificationConfig holds the business thresholds for guest verifications
// Thresholds are pointers so an explicit 0 is kept instead of defaulted.
type VerificationConfig struct {
	FraudRejectThreshold *int `json:"fraudRejectThreshold" yaml:"fraudRejectThreshold"`
	FaceMatchThreshold   *int `json:"faceMatchThreshold" yaml:"faceMatchThreshold"`
	RecentLimit          int  `json:"recentLimit" yaml:"recentLimit"`
	StatsRecentLimit     int  `json:"statsRecentLimit" yaml:"statsRecentLimit"`
}

// StorageConfig defines where uploaded artifacts live
type StorageConfig struct {
	// BucketURL is a gocloud.dev URL, e.g. file:///var/lib/globalchek/uploads or s3://bucket?region=eu-west-3
	BucketURL     string `json:"bucketUrl" yaml:"bucketUrl"`
	PublicPrefix  string `json:"publicPrefix" yaml:"publicPrefix"`
	MaxUploadSize int64  `json:"maxUploadSize" yaml:"maxUploadSize"`
	// MaxSignaturePixels caps width*height of a signature image before it is decoded.
	MaxSignaturePixels int64 `json:"maxSignaturePixels" yaml:"maxSignaturePixels"`
	// SigningKey authenticates artifact URLs. Every API instance needs the same key.
	SigningKey   string        `json:"signingKey" yaml:"signingKey"`
	SignedURLTTL time.Duration `json:"signedUrlTtl" yaml:"signedUrlTtl"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// Audience expected in push OIDC tokens (worker side)
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

// New loads config.yaml, applies defaults and validates the result.
func New() (*Config, error) {
	dirs := []string{"config", "../config", "../../config"}
	if dir := os.Getenv(configDirEnv); dir != "" {
		dirs = []string{dir}
	}

	cfg, err := LoadWithEnv[Config]("config", dirs...)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
