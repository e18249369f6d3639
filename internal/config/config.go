package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment.
const EnvPrefix = "ROTKI"

// Config holds all application configuration
type Config struct {
	// Backend settings
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	Port            int           `mapstructure:"port" validate:"min=1024,max=65535"`
	APIReadyTimeout int           `mapstructure:"api_ready_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"min=1s"`

	// Local rotki-core process
	StartCore bool   `mapstructure:"start_core"`
	BinPath   string `mapstructure:"bin_path" validate:"required_if=StartCore true"`
	DataDir   string `mapstructure:"data_dir"`

	// Task manager
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"min=100ms"`

	// Notifications kept in memory
	NotificationLimit int `mapstructure:"notification_limit" validate:"gt=0"`

	// Logging
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogDir   string `mapstructure:"log_dir"`
}

var validate = validator.New()

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Port:              4242,
		APIReadyTimeout:   30,
		RequestTimeout:    30 * time.Second,
		BinPath:           "bin/rotki-core",
		PollInterval:      2 * time.Second,
		NotificationLimit: 100,
		LogLevel:          "info",
		LogDir:            "logs",
	}
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("api_ready_timeout", defaults.APIReadyTimeout)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("start_core", defaults.StartCore)
	v.SetDefault("bin_path", defaults.BinPath)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("notification_limit", defaults.NotificationLimit)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_dir", defaults.LogDir)
}

var configKeys = []string{
	"base_url", "port", "api_ready_timeout", "request_timeout", "start_core", "bin_path",
	"data_dir", "poll_interval", "notification_limit", "log_level", "log_dir",
}

// Load reads the configuration from defaults, an optional config file and
// ROTKI_* environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	return LoadWithFlags(configFile, nil)
}

// LoadWithFlags is Load with command line flags on top. A flag named after a
// key with dashes instead of underscores (--poll-interval) overrides it when set.
func LoadWithFlags(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewConfig())

	if flags != nil {
		for _, key := range configKeys {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// older deployments exported ROTKI_API_TIMEOUT
	if err := v.BindEnv("api_ready_timeout", "ROTKI_API_READY_TIMEOUT", "ROTKI_API_TIMEOUT"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.SetBaseURL()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetBaseURL derives the base URL from the configured port unless one was given explicitly
func (c *Config) SetBaseURL() {
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed on '%s' (value: %v)",
			fieldErr.Field(), fieldErr.Tag(), fieldErr.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
