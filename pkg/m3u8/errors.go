package m3u8

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRenditions is returned when a master playlist lists no usable rendition.
	ErrNoRenditions = errors.New("no variant playlists found in master playlist")
	// ErrNoSegments is returned when a media playlist yields no segment URIs.
	ErrNoSegments = errors.New("no segments found in media playlist")
	// ErrRecursionLimit is returned when master playlists point at further
	// master playlists more than the configured depth allows.
	ErrRecursionLimit = errors.New("master playlist chain exceeds depth limit")
	// ErrAborted classifies cancellation by the caller. It is never a FetchError.
	ErrAborted = errors.New("aborted")
)

// InputValidationError reports a malformed playlist URL or output path.
type InputValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// FetchError is returned once every attempt for a request has failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError is a non-success HTTP status. It is recoverable within a fetch.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// LocalIOError wraps failures writing segment or concatenated files.
type LocalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LocalIOError) Unwrap() error { return e.Err }

// TranscodeError reports ffmpeg failing or being unavailable.
type TranscodeError struct {
	NotFound bool
	Stderr   string
	Err      error
}

func (e *TranscodeError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("ffmpeg is not installed or not found in PATH: %v", e.Err)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg failed: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

func aborted(err error) error {
	return fmt.Errorf("%w: %w", ErrAborted, err)
}
