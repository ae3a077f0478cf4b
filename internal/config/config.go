package config

import (
	"fmt"
	"time"

	"github.com/hookbridge/hookbridge/internal/signature"
)

// Credential locations accepted by api_key_location.
const (
	APIKeyHeader    = "api_key_header"
	TokenQueryParam = "token_query_param"
	APIKeyNone      = "none"
)

// Middleware selections accepted by the middleware setting.
const (
	MiddlewareDiscord = "discord"
	MiddlewareNone    = "none"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Endpoint  EndpointConfig  `yaml:"endpoint"`
	Backend   BackendConfig   `yaml:"backend"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// EndpointConfig controls how deliveries are authenticated, transformed and
// routed. It is read-only after load.
type EndpointConfig struct {
	StaticAppID              string `yaml:"static_app_id"`
	APIKey                   string `yaml:"api_key"`
	APIKeyLocation           string `yaml:"api_key_location"`
	Middleware               string `yaml:"middleware"`
	SignatureVerificationKey string `yaml:"signature_verification_key"`
	ExplicitInputs           bool   `yaml:"explicit_inputs"`
	JSONStringInput          bool   `yaml:"json_string_input"`
	RawDataOutput            bool   `yaml:"raw_data_output"`
	CallbackURL              string `yaml:"callback_url"`
	CallbackSecretToken      string `yaml:"callback_secret_token"`
}

type BackendConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIToken string        `yaml:"api_token"`
	Timeout  time.Duration `yaml:"timeout"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold      int           `yaml:"failure_threshold"`
	RecoveryProbeInterval time.Duration `yaml:"recovery_probe_interval"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RateLimitConfig struct {
	Enabled           bool  `yaml:"enabled"`
	RequestsPerMinute int64 `yaml:"requests_per_minute"`
	DailyQuota        int64 `yaml:"daily_quota"`
}

type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     150 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Endpoint: EndpointConfig{
			APIKeyLocation: APIKeyHeader,
			Middleware:     MiddlewareNone,
			ExplicitInputs: true,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:5001",
			Timeout: 120 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:      5,
				RecoveryProbeInterval: 15 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "hookbridge",
			User:            "hookbridge",
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 120,
			DailyQuota:        0,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate enforces the configuration invariants at startup so that a broken
// deployment fails fast instead of at first request.
func (c *Config) Validate() error {
	ep := &c.Endpoint

	switch ep.APIKeyLocation {
	case APIKeyHeader, TokenQueryParam:
		if ep.APIKey == "" {
			return fmt.Errorf("api_key is required when api_key_location is %q", ep.APIKeyLocation)
		}
	case APIKeyNone:
	default:
		return fmt.Errorf("unknown api_key_location %q", ep.APIKeyLocation)
	}

	switch ep.Middleware {
	case MiddlewareDiscord:
		if ep.SignatureVerificationKey == "" {
			return fmt.Errorf("signature_verification_key is required when middleware is %q", MiddlewareDiscord)
		}
		if !signature.ValidPublicKey(ep.SignatureVerificationKey) {
			return fmt.Errorf("signature_verification_key is not a valid hex Ed25519 public key")
		}
	case MiddlewareNone:
	default:
		return fmt.Errorf("unknown middleware %q", ep.Middleware)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}

	return nil
}
