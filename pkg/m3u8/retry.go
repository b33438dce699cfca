package m3u8

import (
	"context"
	"errors"
	"time"
)

// attemptFunc performs a single request attempt and reports the HTTP status
// it saw, or zero when no response arrived.
type attemptFunc func(ctx context.Context) (int, error)

// withRetry runs attempt until it succeeds or the retry budget is spent.
// LocalIOError is returned immediately; caller cancellation becomes ErrAborted.
func (d *Downloader) withRetry(ctx context.Context, kind, rawURL string, attempt attemptFunc) error {
	policy := d.opts.Retry
	logger := d.logger.With().Str("kind", kind).Str("url", sanitizeURL(rawURL)).Logger()

	var lastErr error
	for n := 1; n <= policy.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return aborted(err)
		}
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return aborted(err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		start := time.Now()
		status, err := attempt(attemptCtx)
		cancel()
		recordAttempt(kind, status, time.Since(start), err)

		if err == nil {
			return nil
		}
		var ioErr *LocalIOError
		if errors.As(err, &ioErr) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return aborted(ctxErr)
		}

		lastErr = err
		logger.Warn().
			Err(err).
			Int("attempt", n).
			Int("max_attempts", policy.MaxAttempts).
			Msg("fetch attempt failed")

		if n == policy.MaxAttempts {
			break
		}
		fetchRetries.WithLabelValues(kind).Inc()
		if err := sleepWithContext(ctx, policy.Backoff); err != nil {
			return aborted(err)
		}
	}

	fetchFailures.WithLabelValues(kind).Inc()
	return &FetchError{URL: rawURL, Attempts: policy.MaxAttempts, Err: lastErr}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
