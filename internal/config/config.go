package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Job      JobConfig      `mapstructure:"job"      validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// AutoMigrate applies pending goose migrations during startup when true.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"required,gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	// GeminiAPIKey may be empty: the application then runs with the
	// extractive summarizer only.
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"`
	ModelName         string  `mapstructure:"model_name"          validate:"required"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	MaxInputChars     int     `mapstructure:"max_input_chars"     validate:"required,gt=0"`
	// MaxRetries is the number of additional attempts after a transient
	// Gemini API failure; RetryDelaySeconds is the base backoff delay.
	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"required,gte=1"`
}

// JobConfig contains the background job scheduler settings.
type JobConfig struct {
	// Store selects the job store backend.
	Store string `mapstructure:"store" validate:"required,oneof=memory postgres redis"`
	// ScanInterval is the fixed sleep between scheduler passes over queued jobs.
	ScanInterval time.Duration `mapstructure:"scan_interval" validate:"required,gt=0"`
	// HandlerTimeout bounds a single handler invocation, including the
	// summarization call.
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"required,gt=0"`
	// MaxAttempts is the total number of attempts a job gets before it is
	// marked failed permanently.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`
}

// RedisConfig contains Redis connection settings, used when the job store
// backend is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}
