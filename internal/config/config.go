package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application settings
type Config struct {
	Env                   string
	Debug                 bool
	LogMode               string
	DatabaseDriver        string
	DatabaseURL           string
	HTTPAddress           string
	TelegramToken         string
	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	ReviewHour            int
	Location              *time.Location
	AdminUserIDs          map[int64]bool
}

// New returns a viper instance with the application defaults and environment binding
func New() *viper.Viper {
	v := viper.New()

	v.SetTypeByDefaultValue(true)
	v.SetDefault("env", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("log_mode", "dev")
	v.SetDefault("database_driver", "sqlite3")
	v.SetDefault("database_url", "data/studytrack.db")
	v.SetDefault("http_address", ":8080")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("enable_scheduler", true)
	v.SetDefault("notification_start_hour", 4)
	v.SetDefault("notification_end_hour", 18)
	v.SetDefault("review_hour", 6)
	v.SetDefault("timezone", "Local")
	v.SetDefault("admin_user_ids", "")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromViper(New())
}

// FromViper builds and validates a Config from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:                   strings.ToLower(v.GetString("env")),
		Debug:                 v.GetBool("debug"),
		LogMode:               v.GetString("log_mode"),
		DatabaseDriver:        v.GetString("database_driver"),
		DatabaseURL:           v.GetString("database_url"),
		HTTPAddress:           v.GetString("http_address"),
		TelegramToken:         v.GetString("telegram_bot_token"),
		SchedulerEnabled:      v.GetBool("enable_scheduler"),
		NotificationStartHour: v.GetInt("notification_start_hour"),
		NotificationEndHour:   v.GetInt("notification_end_hour"),
		ReviewHour:            v.GetInt("review_hour"),
		AdminUserIDs:          make(map[int64]bool),
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	for name, h := range map[string]int{
		"NOTIFICATION_START_HOUR": cfg.NotificationStartHour,
		"NOTIFICATION_END_HOUR":   cfg.NotificationEndHour,
		"REVIEW_HOUR":             cfg.ReviewHour,
	} {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("%s must be between 0 and 23, got %d", name, h)
		}
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if ids := v.GetString("admin_user_ids"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q: %w", idStr, err)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	return cfg, nil
}

// IsAdmin reports whether userID is listed in ADMIN_USER_IDS
func (c *Config) IsAdmin(userID int64) bool {
	return c.AdminUserIDs[userID]
}
