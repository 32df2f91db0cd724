package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("reqbuilder version %s, commit %s, built at %s", version, commit, date)
}

// EnvPrefix prefixes every environment override, e.g. REQBUILDER_LOGGING_LEVEL.
const EnvPrefix = "REQBUILDER"

type Config struct {
	Logging        LoggingConfig   `mapstructure:"logging"`
	EndpointConfig EndpointConfig  `mapstructure:"endpoint"`
	Generator      GeneratorConfig `mapstructure:"generator"`
}

// AuthType represents the type of authentication to use
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

type EndpointConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type" validate:"omitempty,oneof=none basic bearer api_key"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
	Timeout    time.Duration     `json:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Format            string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// GeneratorConfig configures `reqbuilder gen`.
type GeneratorConfig struct {
	// Output is the file name written into each processed package.
	Output string `mapstructure:"output" validate:"required,endswith=.go"`
}

var validate = validator.New()

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("endpoint.auth_type", string(AuthTypeNone))
	v.SetDefault("endpoint.timeout", "30s")
	v.SetDefault("generator.output", "zz_reqbuilder.go")
}

// Load reads the configuration. configFile may be empty, in which case
// ./reqbuilder.yaml is used when present. Flags in fs (may be nil) and
// REQBUILDER_* environment variables override file values.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("reqbuilder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// flags are bound by their CLI names
	if baseURL := v.GetString("base-url"); baseURL != "" {
		config.EndpointConfig.BaseURL = baseURL
	}
	if level := v.GetString("log-level"); level != "" {
		config.Logging.Level = level
	}

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}
