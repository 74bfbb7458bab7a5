package retry

import (
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxRetries:  3,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Factor:      1.0,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Do(func() (string, error) {
		calls++
		return "ok", nil
	}, IsTransient, fastConfig())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("got result=%q calls=%d", result, calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	result, err := Do(func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("API request failed with status 429")
		}
		return 42, nil
	}, IsTransient, fastConfig())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("got result=%d calls=%d", result, calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(func() (int, error) {
		calls++
		return 0, errors.New("model not found")
	}, IsTransient, fastConfig())

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(func() (int, error) {
		calls++
		return 0, errors.New("rate limit exceeded")
	}, IsTransient, fastConfig())

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 4 { // initial attempt + 3 retries
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("API request failed with status 429"), true},
		{errors.New("loading model into memory"), true},
		{errors.New("Ollama API error (status 503): busy"), true},
		{errors.New("invalid model name"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
