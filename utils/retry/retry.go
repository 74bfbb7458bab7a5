package retry

import (
	"fmt"
	"math"
	"strings"
	"time"

	"ollamacli/utils/config"
)

// Config holds configuration for retry operations.
type Config struct {
	MaxRetries  int           // Maximum number of retry attempts
	InitialWait time.Duration // Initial wait time before first retry
	MaxWait     time.Duration // Maximum wait time between retries
	Factor      float64       // Exponential backoff factor
}

// DefaultConfig provides sensible defaults for calls against a local model
// server: a couple of quick retries, nothing that would stall the prompt.
var DefaultConfig = Config{
	MaxRetries:  3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     10 * time.Second,
	Factor:      2.0,
}

// Do executes op, retrying with exponential backoff while shouldRetry
// accepts the error. The last error is wrapped when all attempts fail.
func Do[T any](op func() (T, error), shouldRetry func(error) bool, cfg Config) (T, error) {
	var result T
	var err error
	wait := cfg.InitialWait

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err = op()
		if err == nil || !shouldRetry(err) {
			return result, err
		}

		if attempt == cfg.MaxRetries {
			var zero T
			return zero, fmt.Errorf("operation failed after %d retries: %w", cfg.MaxRetries, err)
		}

		sleep := time.Duration(math.Min(float64(wait), float64(cfg.MaxWait)))
		config.DebugLog("[Retry] retryable error: %v, retrying in %v (attempt %d/%d)",
			err, sleep, attempt+1, cfg.MaxRetries)
		time.Sleep(sleep)
		wait = time.Duration(float64(wait) * cfg.Factor)
	}

	var zero T
	return zero, err
}

// IsTransient reports whether an error looks like a transient server or
// network condition worth retrying: rate limiting, an overloaded server, or
// a model still being loaded into memory.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "status 503") ||
		strings.Contains(msg, "loading model") ||
		strings.Contains(msg, "connection reset")
}
