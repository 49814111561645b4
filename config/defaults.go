package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultPort               = 5000
	defaultMaxRequestBodySize = "10M"
	defaultPublicPrefix       = "/uploads"
	defaultBucketURL          = "file:///tmp/globalchek/uploads?create_dir=true"
	defaultMaxUploadSize      = 10 << 20
	defaultMaxSignaturePixels = 4096 * 4096
	defaultSignedURLTTL       = 15 * time.Minute
	defaultConnectRetries     = 5
	defaultSlowQuery          = 200 * time.Millisecond

	DefaultFraudRejectThreshold = 70
	DefaultFaceMatchThreshold   = 85
)

// Supported Pub/Sub providers. An empty provider disables publishing.
const (
	pubSubProviderLocal  = "local"
	pubSubProviderGoogle = "google"
)

// applyDefaults fills the optional sections every binary depends on.
func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = defaultPort
	}
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.ConnectRetries == 0 {
		cfg.Database.ConnectRetries = defaultConnectRetries
	}
	if cfg.Database.SlowQueryThreshold == 0 {
		cfg.Database.SlowQueryThreshold = defaultSlowQuery
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTokenTTL == 0 {
		cfg.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if cfg.Auth.PasswordMinLength == 0 {
		cfg.Auth.PasswordMinLength = 8
	}
	if cfg.Auth.TOTPIssuer == "" {
		cfg.Auth.TOTPIssuer = "GlobalChek"
	}
	if cfg.Auth.LoginMaxAttempts == 0 {
		cfg.Auth.LoginMaxAttempts = 5
	}
	if cfg.Auth.LoginWindow == 0 {
		cfg.Auth.LoginWindow = 15 * time.Minute
	}

	if cfg.Verification == nil {
		cfg.Verification = &VerificationConfig{}
	}
	if cfg.Verification.FraudRejectThreshold == nil {
		cfg.Verification.FraudRejectThreshold = intPtr(DefaultFraudRejectThreshold)
	}
	if cfg.Verification.FaceMatchThreshold == nil {
		cfg.Verification.FaceMatchThreshold = intPtr(DefaultFaceMatchThreshold)
	}
	if cfg.Verification.RecentLimit == 0 {
		cfg.Verification.RecentLimit = 10
	}
	if cfg.Verification.StatsRecentLimit == 0 {
		cfg.Verification.StatsRecentLimit = 5
	}

	if cfg.Storage == nil {
		cfg.Storage = &StorageConfig{}
	}
	if cfg.Storage.BucketURL == "" {
		cfg.Storage.BucketURL = defaultBucketURL
	}
	if cfg.Storage.PublicPrefix == "" {
		cfg.Storage.PublicPrefix = defaultPublicPrefix
	}
	if cfg.Storage.MaxUploadSize == 0 {
		cfg.Storage.MaxUploadSize = defaultMaxUploadSize
	}
	if cfg.Storage.MaxSignaturePixels == 0 {
		cfg.Storage.MaxSignaturePixels = defaultMaxSignaturePixels
	}
	if cfg.Storage.SignedURLTTL == 0 {
		cfg.Storage.SignedURLTTL = defaultSignedURLTTL
	}

	if cfg.AI != nil {
		if cfg.AI.Model == "" {
			cfg.AI.Model = "gpt-4o"
		}
		if cfg.AI.Timeout == 0 {
			cfg.AI.Timeout = 60 * time.Second
		}
		if cfg.AI.BreakerFailures == 0 {
			cfg.AI.BreakerFailures = 5
		}
		if cfg.AI.BreakerCooldown == 0 {
			cfg.AI.BreakerCooldown = 30 * time.Second
		}
	}
}

// Validate rejects configurations the binaries cannot run with.
func (c *Config) Validate() error {
	if c.SecretKey.Access == "" || c.SecretKey.Refresh == "" {
		return errors.New("config: secretKey.access and secretKey.refresh are required")
	}
	if c.SecretKey.Access == c.SecretKey.Refresh {
		return errors.New("config: access and refresh secrets must differ")
	}

	if c.Verification != nil {
		for name, value := range map[string]*int{
			"fraudRejectThreshold": c.Verification.FraudRejectThreshold,
			"faceMatchThreshold":   c.Verification.FaceMatchThreshold,
		} {
			if value != nil && (*value < 0 || *value > 100) {
				return errors.Errorf("config: verification.%s must be between 0 and 100, got %d", name, *value)
			}
		}
	}

	if c.Storage != nil && c.Storage.MaxUploadSize < 0 {
		return errors.New("config: storage.maxUploadSize cannot be negative")
	}
	if c.Storage != nil && !strings.HasPrefix(c.Storage.PublicPrefix, "/") {
		return errors.Errorf("config: storage.publicPrefix must start with /, got %q", c.Storage.PublicPrefix)
	}

	if c.PubSub != nil {
		switch c.PubSub.Provider {
		case "", pubSubProviderLocal:
		case pubSubProviderGoogle:
			if c.PubSub.ProjectID == "" || c.PubSub.TopicID == "" {
				return errors.New("config: pubsub.projectId and pubsub.topicId are required for the google provider")
			}
		default:
			return errors.Errorf("config: unknown pubsub provider %q", c.PubSub.Provider)
		}
	}

	return nil
}

func intPtr(v int) *int { return &v }
