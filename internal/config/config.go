package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/papapumpkin/sextant/internal/scoring"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// DefaultAllowedOrigins are the browser origins accepted by the HTTP API
// unless configured otherwise.
var DefaultAllowedOrigins = []string{"http://127.0.0.1:5500", "http://localhost:5500"}

// LogConfig controls structured logging for long-running commands.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Config holds all runtime configuration for sextant.
// Values are populated from .sextant.yaml, SEXTANT_* env vars, and CLI flags.
type Config struct {
	Addr           string          `mapstructure:"addr" validate:"required"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	Strategy       string          `mapstructure:"strategy" validate:"oneof=smart fastest impact deadline"`
	Weights        scoring.Weights `mapstructure:"weights"`
	SuggestLimit   int             `mapstructure:"suggest_limit" validate:"min=1"`
	Strict         bool            `mapstructure:"strict"`
	TelemetryPath  string          `mapstructure:"telemetry_path"`
	Log            LogConfig       `mapstructure:"log"`
	ReadTimeout    time.Duration   `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration   `mapstructure:"write_timeout" validate:"gte=0"`
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	w := scoring.DefaultWeights()
	v.SetDefault("addr", ":8000")
	v.SetDefault("allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("strategy", string(scoring.Smart))
	v.SetDefault("weights.urgency", w.Urgency)
	v.SetDefault("weights.importance", w.Importance)
	v.SetDefault("weights.effort", w.Effort)
	v.SetDefault("weights.dependency", w.Dependency)
	v.SetDefault("suggest_limit", 3)
	v.SetDefault("strict", false)
	v.SetDefault("telemetry_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("read_timeout", 10*time.Second)
	v.SetDefault("write_timeout", 10*time.Second)
}

// Load reads configuration from the global viper instance, applying
// built-in defaults for any values not set by config file, environment, or
// flags, and validates the result.
func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load over an explicit viper instance.
func LoadFrom(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// ScoringWeights returns the configured weight vector. It only takes
// effect under the smart strategy.
func (c Config) ScoringWeights() *scoring.Weights {
	w := c.Weights
	return &w
}
