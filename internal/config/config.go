package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"esg-monitor/internal/coordinator"
	"esg-monitor/internal/executor"
	"esg-monitor/internal/notifier"
	"esg-monitor/internal/planner"
	"esg-monitor/internal/portfolio"
	"esg-monitor/internal/source"
	"esg-monitor/internal/storage"
	"esg-monitor/internal/synthetic"
	"esg-monitor/internal/validation"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port                   string `yaml:"port" validate:"required"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" validate:"gte=1"`
	} `yaml:"server"`

	Logging struct {
		Level       string `yaml:"level" validate:"oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"logging"`

	Planner  planner.Config  `yaml:"planner"`
	Executor executor.Config `yaml:"executor"`

	// External news sources, tried in order
	Sources                 []source.Config `yaml:"sources" validate:"dive"`
	MaxFailuresBeforeSwitch int             `yaml:"max_failures_before_switch" validate:"gte=1"`

	Validator   validation.Config  `yaml:"validator"`
	Coordinator coordinator.Config `yaml:"coordinator"`

	Portfolio struct {
		ID   string `yaml:"id"`
		File string `yaml:"file"` // optional holdings file replacing the built-in set
	} `yaml:"portfolio"`

	Storage  storage.Config  `yaml:"storage"`
	Notifier notifier.Config `yaml:"notifier"`

	Synthetic struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"synthetic"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	cfg := &Config{
		Planner:                 planner.DefaultConfig(),
		Executor:                executor.DefaultConfig(),
		MaxFailuresBeforeSwitch: 3,
		Validator:               validation.DefaultConfig(),
		Coordinator:             coordinator.DefaultConfig(),
		Storage:                 storage.DefaultConfig(),
	}
	cfg.Server.Port = "8080"
	cfg.Server.ShutdownTimeoutSeconds = 5
	cfg.Logging.Level = "info"
	cfg.Portfolio.ID = portfolio.DefaultID
	cfg.Synthetic.Seed = synthetic.DefaultSeed
	return cfg
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Expand environment variables in secrets
	for i := range config.Sources {
		config.Sources[i].APIKey = os.ExpandEnv(config.Sources[i].APIKey)
	}
	config.Storage.DSN = os.ExpandEnv(config.Storage.DSN)
	config.Notifier.TelegramBotToken = os.ExpandEnv(config.Notifier.TelegramBotToken)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks struct tags and the cross-field rules of each component.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Validator.Validate(); err != nil {
		return fmt.Errorf("invalid config: validator: %w", err)
	}
	if c.Notifier.Enabled && c.Notifier.TelegramBotToken != "" && c.Notifier.ChatID == 0 {
		return fmt.Errorf("invalid config: notifier.chat_id is required when the notifier is enabled")
	}
	switch c.Storage.Driver {
	case storage.DriverFile, storage.DriverSQLite, storage.DriverBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("invalid config: storage.path is required for driver %q", c.Storage.Driver)
		}
	case storage.DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("invalid config: storage.dsn is required for driver postgres")
		}
	}
	return nil
}
