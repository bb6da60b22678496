// Package config loads the kerbeiros CLI's configuration from file,
// environment, and defaults, adapted from dittofs's pkg/config.Load:
// viper file loading over defaults with KERBEIROS_-prefixed environment
// overrides (no command-line flags are bound), the same
// mapstructure decode-hook pattern for time.Duration, and
// go-playground/validator struct-tag validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the kerbeiros CLI's configuration: which KDC to talk to, which
// principal to request a TGT for, where to persist the resulting
// credentials, and the ambient logging/telemetry/metrics settings.
type Config struct {
	// KDC is the Key Distribution Center this client talks to.
	KDC KDCConfig `mapstructure:"kdc" yaml:"kdc" validate:"required"`

	// Realm is the Kerberos realm the principal belongs to.
	Realm string `mapstructure:"realm" yaml:"realm" validate:"required"`

	// Principal is the client principal name requesting a TGT (without realm).
	Principal string `mapstructure:"principal" yaml:"principal" validate:"required"`

	// Credential selects how the client proves its identity to the KDC.
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential" validate:"required"`

	// CCachePath is where the resulting ticket is written in MIT ccache
	// format. Empty disables writing a ccache file.
	CCachePath string `mapstructure:"ccache_path" yaml:"ccache_path"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" validate:"required"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls the Prometheus metrics HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// KDCConfig addresses a Key Distribution Center and the transport used to
// reach it (spec §4.4, §6).
type KDCConfig struct {
	Host      string        `mapstructure:"host" yaml:"host" validate:"required"`
	Port      int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PreferUDP bool          `mapstructure:"prefer_udp" yaml:"prefer_udp"`
}

// CredentialConfig selects one of the credential variants the AS client
// supports (spec §4.4's `{Password, Rc4Key, Aes128Key, Aes256Key}`).
type CredentialConfig struct {
	// Kind is one of "password", "rc4", "aes128", "aes256".
	Kind string `mapstructure:"kind" yaml:"kind" validate:"required,oneof=password rc4 aes128 aes256"`

	// Password is used when Kind is "password". The
	// KERBEIROS_CREDENTIAL_PASSWORD environment variable overrides it only
	// when the config file sets credential.password.
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// KeyHex is a hex-encoded raw key, used when Kind is rc4/aes128/aes256.
	KeyHex string `mapstructure:"key_hex" yaml:"key_hex,omitempty"`
}

// LoggingConfig controls logging behavior (internal/logger.Config).
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing
// (internal/telemetry.Config).
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"omitempty,gte=0,lte=1"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// DefaultConfig returns the baseline configuration: a local KDC, text
// logging to stdout, and telemetry/metrics disabled. Realm, Principal and
// Credential are left empty, so it does not pass Validate until they are set.
func DefaultConfig() *Config {
	return &Config{
		KDC: KDCConfig{Host: "127.0.0.1", Port: 88, Timeout: 5 * time.Second},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{Endpoint: "localhost:4317", Insecure: true, SampleRate: 1.0},
		Metrics:   MetricsConfig{Port: 9090},
	}
}

// Load reads configuration from configPath (or the default search path when
// empty) over DefaultConfig's values, then validates the result.
// Environment variables prefixed KERBEIROS_ override only keys the config
// file sets; when no config file is found, DefaultConfig is validated and
// returned without consulting the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("default configuration invalid: %w", err)
		}
		return cfg, nil
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks struct tags via go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg to path in YAML, respecting yaml tags, with owner-only
// permissions since Credential.Password may be present.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("KERBEIROS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kerbeiros")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "kerbeiros")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
