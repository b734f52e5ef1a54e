package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Notification NotificationConfig `mapstructure:"notification"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Export       ExportConfig       `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// NotificationConfig holds status-notification settings
type NotificationConfig struct {
	FinanceEmail string `mapstructure:"finance_email"`
	SenderName   string `mapstructure:"sender_name"`
}

// StorageConfig holds receipt object-store settings
type StorageConfig struct {
	ReceiptBaseURL string `mapstructure:"receipt_base_url"`
}

// ExportConfig holds reimbursement-form export settings
type ExportConfig struct {
	UniversityName string `mapstructure:"university_name"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/expense_reports.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")

	viper.SetDefault("notification.sender_name", "Expense Approval Service")

	viper.SetDefault("storage.receipt_base_url", "http://localhost:9000/receipts")

	viper.SetDefault("export.university_name", "University")
}

func bindEnvVars() {
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("notification.finance_email", "FINANCE_EMAIL")
	viper.BindEnv("storage.receipt_base_url", "RECEIPT_BASE_URL")
	viper.BindEnv("server.port", "SERVER_PORT")
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be positive")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger format must be json or console, got %q", c.Logger.Format)
	}
	if c.Storage.ReceiptBaseURL == "" {
		return fmt.Errorf("receipt base URL is required")
	}
	return nil
}
