package config

import (
	"fmt"

	"github.com/spf13/viper"
)

/* Config holds everything the gateway reads from the environment.
 * Loaded once at startup; the process fails fast if a required value is absent.
 */

type Config struct {
	Port           string `mapstructure:"PORT"`
	WebhookBaseURL string `mapstructure:"WEBHOOK_BASE_URL"`

	TelegramBotAPI string `mapstructure:"TELEGRAM_BOT_API_ROOT"`

	// Chat notified about newly registered bots; 0 disables the notice.
	AdminChatID int64 `mapstructure:"ADMIN_CHAT_ID"`

	ManagerURL    string `mapstructure:"MANAGER_URL"`
	ManagerAPIKey string `mapstructure:"MANAGER_API_KEY"`

	// Optional local instance list for development, merged over the registry.
	StaticInstancesFile string `mapstructure:"STATIC_INSTANCES_FILE"`

	BookServerURL    string `mapstructure:"BOOK_SERVER_URL"`
	BookServerAPIKey string `mapstructure:"BOOK_SERVER_API_KEY"`

	CacheServerURL    string `mapstructure:"CACHE_SERVER_URL"`
	CacheServerAPIKey string `mapstructure:"CACHE_SERVER_API_KEY"`

	UserSettingsURL    string `mapstructure:"USER_SETTINGS_URL"`
	UserSettingsAPIKey string `mapstructure:"USER_SETTINGS_API_KEY"`

	BatchDownloaderURL       string `mapstructure:"BATCH_DOWNLOADER_URL"`
	BatchDownloaderAPIKey    string `mapstructure:"BATCH_DOWNLOADER_API_KEY"`
	PublicBatchDownloaderURL string `mapstructure:"PUBLIC_BATCH_DOWNLOADER_URL"`

	// Optional; when empty the in-memory settings cache is used instead.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

// GetConfig loads the configuration from the environment.
func GetConfig() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("TELEGRAM_BOT_API_ROOT", "https://api.telegram.org")

	keys := []string{
		"PORT", "WEBHOOK_BASE_URL", "TELEGRAM_BOT_API_ROOT", "ADMIN_CHAT_ID",
		"MANAGER_URL", "MANAGER_API_KEY", "STATIC_INSTANCES_FILE",
		"BOOK_SERVER_URL", "BOOK_SERVER_API_KEY",
		"CACHE_SERVER_URL", "CACHE_SERVER_API_KEY",
		"USER_SETTINGS_URL", "USER_SETTINGS_API_KEY",
		"BATCH_DOWNLOADER_URL", "BATCH_DOWNLOADER_API_KEY", "PUBLIC_BATCH_DOWNLOADER_URL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	}
	// AutomaticEnv alone does not feed Unmarshal; bind each key explicitly.
	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports the first required value that is missing.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"WEBHOOK_BASE_URL", c.WebhookBaseURL},
		{"MANAGER_URL", c.ManagerURL},
		{"MANAGER_API_KEY", c.ManagerAPIKey},
		{"BOOK_SERVER_URL", c.BookServerURL},
		{"CACHE_SERVER_URL", c.CacheServerURL},
		{"USER_SETTINGS_URL", c.UserSettingsURL},
		{"BATCH_DOWNLOADER_URL", c.BatchDownloaderURL},
		{"PUBLIC_BATCH_DOWNLOADER_URL", c.PublicBatchDownloaderURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required env variable: %s", r.key)
		}
	}
	return nil
}
