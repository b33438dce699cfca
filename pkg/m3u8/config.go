package m3u8

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 2 * time.Second
	DefaultTimeout     = 10 * time.Second
	DefaultMaxDepth    = 5
	DefaultConcurrency = 1
	DefaultUserAgent   = "m3u8audio"
)

// RetryPolicy bounds the attempts made for one request. Backoff is a fixed
// wait between attempts, Timeout applies to each attempt separately.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

// Options configures a Downloader and the pipeline built on top of it
type Options struct {
	Retry RetryPolicy

	// MaxDepth is the number of master playlists that may be followed
	// before resolution gives up.
	MaxDepth int

	// Concurrency > 1 downloads segments in parallel. Output order is unaffected.
	Concurrency int

	// RateLimit paces request attempts; zero disables pacing.
	RateLimit rate.Limit
	RateBurst int

	Headers   map[string]string
	UserAgent string

	Selector Selector
	Logger   *zerolog.Logger
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		Retry: RetryPolicy{
			MaxAttempts: DefaultMaxAttempts,
			Backoff:     DefaultBackoff,
			Timeout:     DefaultTimeout,
		},
		MaxDepth:    DefaultMaxDepth,
		Concurrency: DefaultConcurrency,
		UserAgent:   DefaultUserAgent,
		Selector:    FirstRendition{},
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Retry.Backoff < 0 {
		opts.Retry.Backoff = 0
	}
	if opts.Retry.Timeout <= 0 {
		opts.Retry.Timeout = DefaultTimeout
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RateLimit > 0 && opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	if opts.Selector == nil {
		opts.Selector = FirstRendition{}
	}
	return opts
}
