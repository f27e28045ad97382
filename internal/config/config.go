// Package config loads the service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values come from the YAML file,
// overridden by environment variables (a .env file is honored when present).
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Images     ImagesConfig     `yaml:"images"`
	Auth       AuthConfig       `yaml:"auth"`
	Relay      RelayConfig      `yaml:"relay"`
	Generator  GeneratorConfig  `yaml:"generator"`
	SMS        SMSConfig        `yaml:"sms"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type ServerConfig struct {
	Addr                string   `yaml:"addr"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
	CORSOrigins         []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DirectoryConfig struct {
	Path string `yaml:"path"`
}

type ImagesConfig struct {
	Dir string `yaml:"dir"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	AdminToken    string `yaml:"admin_token"`
}

type RelayConfig struct {
	// IntentMode is "keyword" (default) or "model".
	IntentMode string `yaml:"intent_mode"`
	// OrderKeyword overrides the order-indicating token.
	OrderKeyword string `yaml:"order_keyword"`
}

type GeneratorConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	BackoffMillis  int    `yaml:"backoff_ms"`
}

type SMSConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	From           string `yaml:"from"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	BackoffMillis  int    `yaml:"backoff_ms"`
}

type TranscribeConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
			IdleTimeoutSeconds:  120,
			CORSOrigins:         []string{"*"},
		},
		Log:       LogConfig{Level: "info", Format: "text"},
		Directory: DirectoryConfig{Path: "stores.json"},
		Images:    ImagesConfig{Dir: "images"},
		Auth:      AuthConfig{TokenTTLHours: 12},
		Relay:     RelayConfig{IntentMode: "keyword"},
		Generator: GeneratorConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		SMS: SMSConfig{
			Endpoint:       "https://api.solapi.com/messages/v4/send",
			TimeoutSeconds: 10,
		},
		Transcribe: TranscribeConfig{Language: "ko-KR", TimeoutSeconds: 20},
		RateLimit:  RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
	}
}

// Load reads the YAML file at path (missing file is fine: defaults stand),
// then applies .env and environment overrides, then validates.
func Load(path string) (*Config, error) {
	// A .env next to the binary is a convenience for development.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus environment are enough to run.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "STOREFRONT_ADDR")
	setString(&c.Log.Level, "STOREFRONT_LOG_LEVEL")
	setString(&c.Log.Format, "STOREFRONT_LOG_FORMAT")
	setString(&c.Directory.Path, "STOREFRONT_DIRECTORY_PATH")
	setString(&c.Images.Dir, "STOREFRONT_IMAGES_DIR")
	setString(&c.Auth.JWTSecret, "STOREFRONT_JWT_SECRET")
	setString(&c.Auth.AdminToken, "STOREFRONT_ADMIN_TOKEN")
	setString(&c.Relay.IntentMode, "STOREFRONT_INTENT_MODE")
	setString(&c.Relay.OrderKeyword, "STOREFRONT_ORDER_KEYWORD")
	setString(&c.Generator.BaseURL, "GENERATOR_BASE_URL")
	setString(&c.Generator.APIKey, "GENERATOR_API_KEY")
	setString(&c.Generator.Model, "GENERATOR_MODEL")
	setInt(&c.Generator.MaxRetries, "GENERATOR_MAX_RETRIES")
	setString(&c.SMS.Endpoint, "SMS_ENDPOINT")
	setString(&c.SMS.APIKey, "SMS_API_KEY")
	setString(&c.SMS.APISecret, "SMS_API_SECRET")
	setString(&c.SMS.From, "SMS_FROM")
	setInt(&c.SMS.MaxRetries, "SMS_MAX_RETRIES")
	setString(&c.Transcribe.Endpoint, "TRANSCRIBE_ENDPOINT")
	setString(&c.Transcribe.APIKey, "TRANSCRIBE_API_KEY")
	setString(&c.Transcribe.Language, "TRANSCRIBE_LANGUAGE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

// Validate checks the fields the server cannot run without.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Directory.Path == "" {
		return fmt.Errorf("directory path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required (STOREFRONT_JWT_SECRET)")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit requests_per_second must be positive")
	}
	return nil
}

// TokenTTL returns the session token lifetime.
func (c *AuthConfig) TokenTTL() time.Duration {
	if c.TokenTTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.TokenTTLHours) * time.Hour
}
