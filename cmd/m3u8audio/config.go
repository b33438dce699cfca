package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hollowness-inside/m3u8audio/pkg/m3u8"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// settings is everything a run needs, after defaults, the config file and
// flags have been applied in that order.
type settings struct {
	Options     m3u8.Options
	FFmpegPath  string
	HeadersFile string
	CacheFile   string
	MetricsFile string
	TempDir     string
	KeepTemp    bool
	Verbose     bool
}

func defaultSettings() settings {
	return settings{Options: m3u8.DefaultOptions()}
}

type retryFile struct {
	MaxAttempts *int           `yaml:"max_attempts"`
	Backoff     *time.Duration `yaml:"backoff"`
	Timeout     *time.Duration `yaml:"timeout"`
}

// fileConfig mirrors the YAML config file. Unset keys keep their defaults.
type fileConfig struct {
	Retry       retryFile         `yaml:"retry"`
	MaxDepth    *int              `yaml:"max_depth"`
	Concurrency *int              `yaml:"concurrency"`
	RateLimit   *float64          `yaml:"rate_limit"`
	RateBurst   *int              `yaml:"rate_burst"`
	FFmpeg      string            `yaml:"ffmpeg"`
	Headers     map[string]string `yaml:"headers"`
	UserAgent   string            `yaml:"user_agent"`
	Cache       string            `yaml:"cache"`
	MetricsFile string            `yaml:"metrics_file"`
	TempDir     string            `yaml:"temp_dir"`
	KeepTemp    *bool             `yaml:"keep_temp"`
	Verbose     *bool             `yaml:"verbose"`
}

func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&fc); err != nil {
		// A file without any YAML document, comments only included.
		if errors.Is(err, io.EOF) {
			return &fc, nil
		}
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (s *settings) applyFile(fc *fileConfig) {
	if fc.Retry.MaxAttempts != nil {
		s.Options.Retry.MaxAttempts = *fc.Retry.MaxAttempts
	}
	if fc.Retry.Backoff != nil {
		s.Options.Retry.Backoff = *fc.Retry.Backoff
	}
	if fc.Retry.Timeout != nil {
		s.Options.Retry.Timeout = *fc.Retry.Timeout
	}
	if fc.MaxDepth != nil {
		s.Options.MaxDepth = *fc.MaxDepth
	}
	if fc.Concurrency != nil {
		s.Options.Concurrency = *fc.Concurrency
	}
	if fc.RateLimit != nil {
		s.Options.RateLimit = rate.Limit(*fc.RateLimit)
	}
	if fc.RateBurst != nil {
		s.Options.RateBurst = *fc.RateBurst
	}
	if len(fc.Headers) > 0 {
		s.Options.Headers = fc.Headers
	}
	if fc.UserAgent != "" {
		s.Options.UserAgent = fc.UserAgent
	}
	if fc.FFmpeg != "" {
		s.FFmpegPath = fc.FFmpeg
	}
	if fc.Cache != "" {
		s.CacheFile = fc.Cache
	}
	if fc.MetricsFile != "" {
		s.MetricsFile = fc.MetricsFile
	}
	if fc.TempDir != "" {
		s.TempDir = fc.TempDir
	}
	if fc.KeepTemp != nil {
		s.KeepTemp = *fc.KeepTemp
	}
	if fc.Verbose != nil {
		s.Verbose = *fc.Verbose
	}
}

func (s settings) validate() error {
	if s.Options.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", s.Options.Retry.MaxAttempts)
	}
	if s.Options.Retry.Backoff < 0 {
		return fmt.Errorf("retry.backoff must not be negative")
	}
	if s.Options.Retry.Timeout <= 0 {
		return fmt.Errorf("retry.timeout must be positive")
	}
	if s.Options.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", s.Options.MaxDepth)
	}
	if s.Options.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", s.Options.Concurrency)
	}
	if s.Options.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	return nil
}
