// Package config loads service settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/valpere/pivotran/internal/cache"
	"github.com/valpere/pivotran/internal/translator"
)

// EnvPrefix prefixes every environment override, e.g. PIVOTRAN_SERVER_PORT.
const EnvPrefix = "PIVOTRAN"

// TokenEnv is the bare environment variable the token is also read from.
const TokenEnv = "HF_API_TOKEN"

// Config holds all configuration for the service.
type Config struct {
	Server ServerConfig             `mapstructure:"server"`
	HF     translator.ServiceConfig `mapstructure:"hf"`
	Cache  CacheConfig              `mapstructure:"cache"`
	Log    LogConfig                `mapstructure:"log"`
}

// ServerConfig holds the inbound HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CacheConfig bounds the model existence cache.
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// First non-empty wins.
	_ = v.BindEnv("hf.token", EnvPrefix+"_HF_TOKEN", TokenEnv)

	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("hf.token", "")
	v.SetDefault("hf.registry_url", translator.DefaultRegistryURL)
	v.SetDefault("hf.inference_url", translator.DefaultInferenceURL)
	v.SetDefault("hf.model_owner", translator.DefaultModelOwner)
	v.SetDefault("hf.timeout", translator.DefaultTimeout)
	v.SetDefault("cache.size", cache.DefaultSize)
	v.SetDefault("log.development", false)
}

// Load reads the optional config file, then unmarshals and validates.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	return validation.Errors{
		"server": c.Server.Validate(),
		"hf":     validateService(c.HF),
		"cache":  c.Cache.Validate(),
	}.Filter()
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Size, validation.Required, validation.Min(1)),
	)
}

func validateService(s translator.ServiceConfig) error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.RegistryURL, validation.Required, is.URL),
		validation.Field(&s.InferenceURL, validation.Required, is.URL),
		validation.Field(&s.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}
