package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the registry construction parameters. All fields are fixed at
// registry construction time and never mutated afterwards.
type Config struct {
	// BufferCapacity is the number of samples retained per metric.
	BufferCapacity int `mapstructure:"buffer_capacity" validate:"gt=0"`
	// CapacityOverrides maps a full metric name to a capacity that replaces
	// BufferCapacity for that metric only.
	CapacityOverrides map[string]int `mapstructure:"capacity_overrides" validate:"dive,gt=0"`
	// SampleInterval is the cadence at which the sampler flushes live
	// accumulator state into the time-series buffers.
	SampleInterval time.Duration `mapstructure:"sample_interval" validate:"gt=0"`
	// Quantiles are the histogram summary quantiles, each in (0, 1).
	Quantiles []float64 `mapstructure:"quantiles" validate:"required,dive,gt=0,lt=1"`
	// Separator splits metric names into namespace segments.
	Separator string `mapstructure:"separator" validate:"required"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BufferCapacity: 500,
		SampleInterval: time.Second,
		Quantiles:      []float64{0.5, 0.9, 0.99},
		Separator:      ".",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	if strings.TrimSpace(c.Separator) == "" {
		return fmt.Errorf("invalid metrics config: separator must not be blank")
	}
	return nil
}

// SortedQuantiles returns the configured quantiles in ascending order with
// duplicates removed.
func (c *Config) SortedQuantiles() []float64 {
	qs := make([]float64, 0, len(c.Quantiles))
	seen := make(map[float64]struct{}, len(c.Quantiles))
	for _, q := range c.Quantiles {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		qs = append(qs, q)
	}
	sort.Float64s(qs)
	return qs
}

// CapacityFor returns the buffer capacity for the given metric name, applying
// any per-name override.
func (c *Config) CapacityFor(name string) int {
	if n, ok := c.CapacityOverrides[name]; ok {
		return n
	}
	return c.BufferCapacity
}

// Load reads configuration from the given file path, then applies environment
// overrides with the PULSEBOARD_ prefix. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("buffer_capacity", def.BufferCapacity)
	v.SetDefault("sample_interval", def.SampleInterval)
	v.SetDefault("quantiles", def.Quantiles)
	v.SetDefault("separator", def.Separator)

	v.SetEnvPrefix("PULSEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
