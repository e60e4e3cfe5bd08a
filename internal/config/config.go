package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quickcourt/internal/models"
	"quickcourt/internal/timeslot"
)

type Config struct {
	App        AppConfig         `yaml:"app"`
	Database   DatabaseConfig    `yaml:"database"`
	Redis      RedisConfig       `yaml:"redis"`
	Logging    LoggingConfig     `yaml:"logging"`
	Monitoring MonitoringConfig  `yaml:"monitoring"`
	API        APIConfig         `yaml:"api"`
	Telegram   TelegramConfig    `yaml:"telegram"`
	Payment    PaymentConfig     `yaml:"payment"`
	Booking    BookingConfig     `yaml:"booking"`
	Facilities []models.Facility `yaml:"facilities"`
	Courts     []models.Court    `yaml:"courts"`
	Exports    ExportConfig      `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type PaymentConfig struct {
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	Currency  string `yaml:"currency"`
}

type BookingConfig struct {
	MaxBookingDays int `yaml:"max_booking_days"`
	HoldTTLSeconds int `yaml:"hold_ttl_seconds"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Переменные окружения из .env, если файл есть
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when notifications are enabled")
	}

	if err := ValidateFacilities(c.Facilities); err != nil {
		return err
	}

	return ValidateCourts(c.Courts, c.Facilities)
}

func ValidateFacilities(facilities []models.Facility) error {
	facilityIDs := make(map[int64]bool)
	for i := range facilities {
		f := &facilities[i]
		if f.ID == 0 {
			return fmt.Errorf("facility '%s' has invalid ID 0", f.Name)
		}
		if facilityIDs[f.ID] {
			return fmt.Errorf("duplicate facility ID found: %d", f.ID)
		}
		facilityIDs[f.ID] = true

		if f.Peak.Multiplier != 0 && f.Peak.Multiplier < 1 {
			return fmt.Errorf("facility %d peak multiplier must be at least 1", f.ID)
		}
		if f.Peak.Start != "" || f.Peak.End != "" {
			if _, err := timeslot.NewInterval(f.Peak.Start, f.Peak.End); err != nil {
				return fmt.Errorf("facility %d peak window: %w", f.ID, err)
			}
		}
		for day, window := range f.Hours {
			if !window.IsOpen {
				continue
			}
			if _, err := timeslot.NewInterval(window.OpenTime, window.CloseTime); err != nil {
				return fmt.Errorf("facility %d hours for %s: %w", f.ID, day, err)
			}
		}
	}
	return nil
}

func ValidateCourts(courts []models.Court, facilities []models.Facility) error {
	facilityIDs := make(map[int64]bool)
	for _, f := range facilities {
		facilityIDs[f.ID] = true
	}

	courtIDs := make(map[int64]bool)
	for i := range courts {
		c := &courts[i]
		if c.ID == 0 {
			return fmt.Errorf("court '%s' has invalid ID 0", c.Name)
		}
		if courtIDs[c.ID] {
			return fmt.Errorf("duplicate court ID found: %d", c.ID)
		}
		courtIDs[c.ID] = true

		if !facilityIDs[c.FacilityID] {
			return fmt.Errorf("court %d references unknown facility %d", c.ID, c.FacilityID)
		}
		if c.HourlyRate < 0 {
			return fmt.Errorf("court %d has negative hourly rate", c.ID)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.HoldTTLSeconds == 0 {
		c.Booking.HoldTTLSeconds = models.DefaultHoldTTL
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = models.DefaultCurrency
	}
}
