package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Telegram       TelegramConfig
	Chatwoot       ChatwootConfig
	Notification   NotificationConfig
	RateLimit      RateLimitConfig
	Logging        LoggingConfig
	CircuitBreaker CircuitBreakerConfig
	Tracing        TracingConfig
}

type ServerConfig struct {
	Host                string `mapstructure:"host"`
	Port                int    `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type TelegramConfig struct {
	BotToken string  `mapstructure:"bot_token"`
	AdminIDs []int64 `mapstructure:"-"`
	APIURL   string  `mapstructure:"api_url"`
	// SendTimeoutSeconds bounds a single sendMessage call.
	SendTimeoutSeconds int `mapstructure:"send_timeout_seconds"`
}

type ChatwootConfig struct {
	BaseURL   string   `mapstructure:"base_url"`
	Providers []string `mapstructure:"-"`
}

type NotificationConfig struct {
	Locale     string `mapstructure:"locale"`
	LocalesDir string `mapstructure:"locales_dir"`
}

// RateLimitConfig caps outbound sends. The bucket holds one token, so the
// cap holds over every rolling second.
type RateLimitConfig struct {
	PerSecond int `mapstructure:"per_sec"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func (c ServerConfig) Addr() string {
	return joinHostPort(c.Host, c.Port)
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c TelegramConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
