package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid value")

// Config drives the demo run.
type Config struct {
	NumberOfBuckets           int      `yaml:"numberOfBuckets"`
	NumberOfBucketsPerElement int      `yaml:"numberOfBucketsPerElement"`
	Elements                  []int64  `yaml:"elements"` // seeds the basic and counting filters
	Extra                     int64    `yaml:"extra"`    // added after construction
	Local                     []int64  `yaml:"local"`    // this side of the reconciliation
	Remote                    []int64  `yaml:"remote"`   // the peer's side
	Words                     []string `yaml:"words"`
	LogLevel                  string   `yaml:"logLevel"`
}

func Default() Config {
	return Config{
		NumberOfBuckets:           128,
		NumberOfBucketsPerElement: 3,
		Elements:                  []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Extra:                     11,
		Local:                     []int64{1, 2, 3, 4, 5, 6},
		Remote:                    []int64{2, 3, 4, 5, 6, 7},
		Words:                     []string{"Hello", "World"},
		LogLevel:                  "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the shape and log level from BLOOM_BUCKETS,
// BLOOM_BUCKETS_PER_ELEMENT and LOG_LEVEL.
func (c Config) ApplyEnv() (Config, error) {
	var err error
	if c.NumberOfBuckets, err = atoiEnv("BLOOM_BUCKETS", c.NumberOfBuckets); err != nil {
		return Config{}, err
	}
	if c.NumberOfBucketsPerElement, err = atoiEnv("BLOOM_BUCKETS_PER_ELEMENT", c.NumberOfBucketsPerElement); err != nil {
		return Config{}, err
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	return c, nil
}

func (c Config) Validate() error {
	if c.NumberOfBuckets <= 0 {
		return fmt.Errorf("%w: numberOfBuckets=%d", ErrInvalid, c.NumberOfBuckets)
	}
	if c.NumberOfBucketsPerElement <= 0 || c.NumberOfBucketsPerElement > c.NumberOfBuckets {
		return fmt.Errorf("%w: numberOfBucketsPerElement=%d", ErrInvalid, c.NumberOfBucketsPerElement)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func atoiEnv(key string, defaultValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalid, key, s)
	}
	return v, nil
}
