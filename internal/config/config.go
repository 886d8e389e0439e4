package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	AppEnv                string `mapstructure:"APP_ENV"`
	CORSOrigins           string `mapstructure:"CORS_ORIGINS"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGODB_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	MongoConnectRetries   int    `mapstructure:"MONGO_CONNECT_RETRIES"`
	MongoRetryDelaySec    int    `mapstructure:"MONGO_RETRY_DELAY_SEC"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	TokenTTLHours         int    `mapstructure:"TOKEN_TTL_HOURS"`
	OTPTTLMinutes         int    `mapstructure:"OTP_TTL_MINUTES"`
	StudentEmailDomain    string `mapstructure:"STUDENT_EMAIL_DOMAIN"`
	MentorCapacity        int    `mapstructure:"MENTOR_CAPACITY"`
	MaxAttachmentMB       int    `mapstructure:"MAX_ATTACHMENT_MB"`
	EmailUser             string `mapstructure:"EMAIL_USER"`
	EmailPass             string `mapstructure:"EMAIL_PASS"`
	MailgunDomain         string `mapstructure:"MAILGUN_DOMAIN"`
	AdminEmail            string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword         string `mapstructure:"ADMIN_PASSWORD"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int    `mapstructure:"WS_OUTBOX_BUFFER"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	PyroscopeAddress      string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 3001)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGODB_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "alumni")
	v.SetDefault("MONGO_CONNECT_RETRIES", 5)
	v.SetDefault("MONGO_RETRY_DELAY_SEC", 5)
	v.SetDefault("JWT_SECRET", "this-is-a-default-jwt-secret-key-with-32-plus-characters")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("OTP_TTL_MINUTES", 10)
	v.SetDefault("STUDENT_EMAIL_DOMAIN", "mgmcen.ac.in")
	v.SetDefault("MENTOR_CAPACITY", 3)
	v.SetDefault("MAX_ATTACHMENT_MB", 5)
	v.SetDefault("EMAIL_USER", "")
	v.SetDefault("EMAIL_PASS", "")
	v.SetDefault("MAILGUN_DOMAIN", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 64)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// MaxAttachmentBytes is MAX_ATTACHMENT_MB expressed in bytes.
func (c Config) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentMB) << 20
}

// MailEnabled reports whether enough settings are present to deliver mail.
func (c Config) MailEnabled() bool {
	return c.EmailUser != "" && c.EmailPass != "" && c.MailgunDomain != ""
}

// Validation errors returned by Validate.
var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrAppEnvUnknown           = errors.New("APP_ENV must be one of development, production, test")
	ErrBcryptCostRange         = errors.New("BCRYPT_COST must be between 10 and 16")
	ErrSignInRatePerMin        = errors.New("SIGNIN_RATE_PER_MIN must be greater than or equal to 1")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty           = errors.New("MONGODB_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrMongoConnectRetries     = errors.New("MONGO_CONNECT_RETRIES must be greater than or equal to 1")
	ErrMongoRetryDelay         = errors.New("MONGO_RETRY_DELAY_SEC cannot be negative")
	ErrJWTSecretRequired       = errors.New("JWT_SECRET cannot be empty")
	ErrJWTSecretTooShort       = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTAlgorithmUnsupported = errors.New("JWT_ALGORITHM must be HS256")
	ErrTokenTTL                = errors.New("TOKEN_TTL_HOURS must be greater than 0")
	ErrOTPTTL                  = errors.New("OTP_TTL_MINUTES must be greater than 0")
	ErrStudentDomainEmpty      = errors.New("STUDENT_EMAIL_DOMAIN cannot be empty")
	ErrMentorCapacity          = errors.New("MENTOR_CAPACITY must be greater than or equal to 1")
	ErrMaxAttachmentRange      = errors.New("MAX_ATTACHMENT_MB must be between 1 and 50")
	ErrAdminBootstrapPair      = errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	ErrWSMaxSession            = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer          = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
)

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	switch strings.ToLower(c.AppEnv) {
	case "development", "production", "test":
	default:
		return ErrAppEnvUnknown
	}
	if c.BcryptCost < 10 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.SignInRatePerMin < 1 {
		return ErrSignInRatePerMin
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.MongoConnectRetries < 1 {
		return ErrMongoConnectRetries
	}
	if c.MongoRetryDelaySec < 0 {
		return ErrMongoRetryDelay
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.JWTAlgorithm != "HS256" {
		return ErrJWTAlgorithmUnsupported
	}
	if len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	if c.TokenTTLHours <= 0 {
		return ErrTokenTTL
	}
	if c.OTPTTLMinutes <= 0 {
		return ErrOTPTTL
	}
	if c.StudentEmailDomain == "" {
		return ErrStudentDomainEmpty
	}
	if c.MentorCapacity < 1 {
		return ErrMentorCapacity
	}
	if c.MaxAttachmentMB < 1 || c.MaxAttachmentMB > 50 {
		return ErrMaxAttachmentRange
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return ErrAdminBootstrapPair
	}
	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSession
	}
	if c.WSOutboxBuffer <= 0 {
		return ErrWSOutboxBuffer
	}
	return nil
}
