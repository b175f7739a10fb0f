// Package config loads stagedl settings from a YAML file and maps them onto
// the HTTP client and download engine.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	stagehttp "github.com/tanq16/stagedl/internal/downloaders/http"
	"github.com/tanq16/stagedl/internal/downloaders/s3"
	"github.com/tanq16/stagedl/internal/utils"
	"gopkg.in/yaml.v3"
)

// Config defines configuration for the stagedl CLI.
type Config struct {
	UserAgent        string
	Timeout          time.Duration
	KeepAliveTimeout time.Duration
	ChunkSize        uint32
	MinSize          uint64
	Segmented        bool
	StagingDir       string
	Headers          map[string]string
	Token            string
	Proxy            string
	S3Profile        string
	S3PresignExpiry  time.Duration
	ProgressInterval time.Duration
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		UserAgent:        utils.ToolUserAgent,
		Timeout:          3 * time.Minute,
		KeepAliveTimeout: 90 * time.Second,
		ChunkSize:        utils.DefaultChunkSize,
		Segmented:        true,
		Headers:          map[string]string{},
		S3PresignExpiry:  s3.DefaultExpiry,
		ProgressInterval: 200 * time.Millisecond,
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	UserAgent        string            `yaml:"user_agent"`
	Timeout          string            `yaml:"timeout"`
	KeepAliveTimeout string            `yaml:"keep_alive_timeout"`
	ChunkSize        string            `yaml:"chunk_size"`
	MinSize          string            `yaml:"min_size"`
	Segmented        *bool             `yaml:"segmented"`
	StagingDir       string            `yaml:"staging_dir"`
	Headers          map[string]string `yaml:"headers"`
	Token            string            `yaml:"token"`
	Proxy            string            `yaml:"proxy"`
	S3Profile        string            `yaml:"s3_profile"`
	S3PresignExpiry  string            `yaml:"s3_presign_expiry"`
	ProgressInterval string            `yaml:"progress_interval"`
}

// DefaultPath is config.yaml under the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "stagedl", "config.yaml")
}

// Load reads path when it exists and falls back to Default otherwise.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := LoadFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if err := parseDuration(yc.Timeout, "timeout", &cfg.Timeout); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.KeepAliveTimeout, "keep_alive_timeout", &cfg.KeepAliveTimeout); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.ProgressInterval, "progress_interval", &cfg.ProgressInterval); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.S3PresignExpiry, "s3_presign_expiry", &cfg.S3PresignExpiry); err != nil {
		return Config{}, err
	}
	if yc.ChunkSize != "" {
		size, err := ParseChunkSize(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	if yc.MinSize != "" {
		size, err := utils.ParseBytes(yc.MinSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse min_size: %w", err)
		}
		cfg.MinSize = size
	}
	if yc.Segmented != nil {
		cfg.Segmented = *yc.Segmented
	}
	if yc.StagingDir != "" {
		cfg.StagingDir = yc.StagingDir
	}
	for k, v := range yc.Headers {
		cfg.Headers[k] = v
	}
	cfg.Token = yc.Token
	cfg.Proxy = yc.Proxy
	cfg.S3Profile = yc.S3Profile

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseChunkSize parses a byte string that must fit a ranged request size.
func ParseChunkSize(s string) (uint32, error) {
	size, err := utils.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("chunk size %s exceeds %s", utils.FormatBytes(size), utils.FormatBytes(math.MaxUint32))
	}
	return uint32(size), nil
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.Segmented && c.ChunkSize == 0 {
		return errors.New("chunk_size must be greater than zero")
	}
	if c.Timeout < 0 || c.KeepAliveTimeout < 0 || c.ProgressInterval < 0 || c.S3PresignExpiry < 0 {
		return errors.New("durations must not be negative")
	}
	if c.S3PresignExpiry > s3.MaxExpiry {
		return fmt.Errorf("s3_presign_expiry must not exceed %s", s3.MaxExpiry)
	}
	return nil
}

func (c Config) HTTPClientConfig() utils.HTTPClientConfig {
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	return utils.HTTPClientConfig{
		Timeout:   c.Timeout,
		KATimeout: c.KeepAliveTimeout,
		ProxyURL:  c.Proxy,
		UserAgent: c.UserAgent,
		Headers:   headers,
		Token:     c.Token,
	}
}

func (c Config) EngineOptions() stagehttp.Options {
	return stagehttp.Options{
		Segmented:        c.Segmented,
		ChunkSize:        c.ChunkSize,
		MinSize:          c.MinSize,
		StagingDir:       c.StagingDir,
		UserAgent:        c.UserAgent,
		ProgressInterval: c.ProgressInterval,
	}
}

func parseDuration(raw, field string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}
