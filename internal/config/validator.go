package config

import (
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateTelegram(cfg.Telegram); err != nil {
		errors = append(errors, err)
	}

	if err := validateNotification(cfg.Notification, cfg.Chatwoot); err != nil {
		errors = append(errors, err)
	}

	if err := validateRateLimit(cfg.RateLimit); err != nil {
		errors = append(errors, err)
	}

	if err := validateCircuitBreaker(cfg.CircuitBreaker); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

// Warnings lists settings that do not block startup but leave delivery ineffective.
func Warnings(cfg *Config) []string {
	var warnings []string
	if cfg.Telegram.BotToken == "" {
		warnings = append(warnings, "BOT_TOKEN is empty, sends will be rejected by Telegram")
	}
	if len(cfg.Telegram.AdminIDs) == 0 {
		warnings = append(warnings, "ADMIN_IDS is empty, notifications have no recipients")
	}
	if cfg.Chatwoot.BaseURL == "" {
		warnings = append(warnings, "BASE_URL is empty, deep links will be relative")
	}
	return warnings
}

func validateServer(cfg ServerConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "server.host",
			Message: "host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateTelegram(cfg TelegramConfig) error {
	if cfg.APIURL == "" {
		return &ValidationError{
			Field:   "telegram.api_url",
			Message: "Telegram API URL is required",
		}
	}

	if cfg.SendTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "telegram.send_timeout_seconds",
			Message: "send timeout must be positive",
		}
	}

	return nil
}

func validateNotification(cfg NotificationConfig, chatwoot ChatwootConfig) error {
	if cfg.Locale == "" {
		return &ValidationError{
			Field:   "notification.locale",
			Message: "locale is required",
		}
	}

	if cfg.LocalesDir == "" {
		return &ValidationError{
			Field:   "notification.locales_dir",
			Message: "locales directory is required",
		}
	}

	if len(chatwoot.Providers) == 0 {
		return &ValidationError{
			Field:   "chatwoot.providers",
			Message: "at least one webhook provider is required",
		}
	}

	return nil
}

func validateRateLimit(cfg RateLimitConfig) error {
	if cfg.PerSecond <= 0 {
		return &ValidationError{
			Field:   "ratelimit.per_sec",
			Message: fmt.Sprintf("rate limit must be positive, got %d", cfg.PerSecond),
		}
	}

	return nil
}

func validateCircuitBreaker(cfg CircuitBreakerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		return &ValidationError{
			Field:   "circuitbreaker.failure_ratio",
			Message: fmt.Sprintf("failure ratio must be in (0, 1], got %v", cfg.FailureRatio),
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "circuitbreaker.timeout",
			Message: "timeout must be positive",
		}
	}

	return nil
}
