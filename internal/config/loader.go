package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8000
	DefaultLocale           = "ru"
	DefaultRateLimitPerSec  = 25
	DefaultTelegramAPIURL   = "https://api.telegram.org"
	DefaultLocalesDir       = "locales"
	DefaultWebhookProviders = "chatwoot"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigType("yaml")
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv exports the keys of a dotenv file into the process environment.
// Variables that are already set win over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", DefaultHost)
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.read_timeout_seconds", 15)
	viper.SetDefault("server.write_timeout_seconds", 60)

	viper.SetDefault("telegram.api_url", DefaultTelegramAPIURL)
	viper.SetDefault("telegram.send_timeout_seconds", 10)

	viper.SetDefault("notification.locale", DefaultLocale)
	viper.SetDefault("notification.locales_dir", DefaultLocalesDir)

	viper.SetDefault("ratelimit.per_sec", DefaultRateLimitPerSec)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("circuitbreaker.enabled", true)
	viper.SetDefault("circuitbreaker.max_requests", 3)
	viper.SetDefault("circuitbreaker.interval", 60*time.Second)
	viper.SetDefault("circuitbreaker.timeout", 30*time.Second)
	viper.SetDefault("circuitbreaker.failure_ratio", 0.5)
	viper.SetDefault("circuitbreaker.min_requests", 5)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.service_name", "relay-service")
}

func bindEnvVariables() {
	viper.BindEnv("telegram.bot_token", "BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.admin_ids", "ADMIN_IDS", "TELEGRAM_ADMIN_IDS")
	viper.BindEnv("telegram.api_url", "TELEGRAM_API_URL")
	viper.BindEnv("telegram.send_timeout_seconds", "SEND_TIMEOUT_SECONDS")

	viper.BindEnv("chatwoot.base_url", "BASE_URL", "CHATWOOT_BASE_URL")
	viper.BindEnv("chatwoot.providers", "WEBHOOK_PROVIDERS")

	viper.BindEnv("server.host", "HOST")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("notification.locale", "LOCALE")
	viper.BindEnv("notification.locales_dir", "LOCALES_DIR")

	viper.BindEnv("ratelimit.per_sec", "RATE_LIMIT_PER_SEC")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("circuitbreaker.enabled", "CIRCUIT_BREAKER_ENABLED")
	viper.BindEnv("circuitbreaker.timeout", "CIRCUIT_BREAKER_TIMEOUT")
	viper.BindEnv("circuitbreaker.failure_ratio", "CIRCUIT_BREAKER_FAILURE_RATIO")
	viper.BindEnv("circuitbreaker.min_requests", "CIRCUIT_BREAKER_MIN_REQUESTS")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	cfg.Telegram.BotToken = strings.TrimSpace(cfg.Telegram.BotToken)
	cfg.Telegram.AdminIDs = ParseAdminIDs(viper.Get("telegram.admin_ids"))
	cfg.Telegram.APIURL = strings.TrimRight(cfg.Telegram.APIURL, "/")

	cfg.Chatwoot.BaseURL = strings.TrimRight(cfg.Chatwoot.BaseURL, "/")

	providers := splitList(viper.Get("chatwoot.providers"))
	if len(providers) == 0 {
		providers = []string{DefaultWebhookProviders}
	}
	cfg.Chatwoot.Providers = providers

	cfg.Notification.Locale = strings.TrimSpace(cfg.Notification.Locale)

	return nil
}

// ParseAdminIDs accepts a comma-separated string or a YAML list and keeps
// only the entries that parse as integers.
func ParseAdminIDs(raw interface{}) []int64 {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return []int64{}
	case string:
		parts = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
	case []string:
		parts = v
	case []int:
		ids := make([]int64, 0, len(v))
		for _, id := range v {
			ids = append(ids, int64(id))
		}
		return ids
	default:
		parts = []string{fmt.Sprintf("%v", v)}
	}

	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func splitList(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []interface{}:
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
	}

	items := make([]string, 0, len(parts))
	for _, item := range parts {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
