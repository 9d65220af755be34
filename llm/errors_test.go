package llm

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsConfigError(t *testing.T) {
	if !IsConfigError(NewConfigError("missing key", nil)) {
		t.Error("Expected config error to be detected")
	}
	invalid := &Error{Type: ErrorTypeInvalidRequest, Message: "bad request"}
	if !IsConfigError(invalid) {
		t.Error("Expected invalid_request to count as a config error")
	}
	if IsConfigError(NewProviderError("upstream", nil)) {
		t.Error("Expected provider error not to count as a config error")
	}
	if IsConfigError(errors.New("plain error")) {
		t.Error("Expected plain error not to count as a config error")
	}
}

func TestIsConfigError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("while building backend: %w", NewConfigError("missing key", nil))
	if !IsConfigError(wrapped) {
		t.Error("Expected wrapped config error to be detected")
	}
}

func TestIsRateLimitError(t *testing.T) {
	if !IsRateLimitError(NewRateLimitError("slow down", nil, nil)) {
		t.Error("Expected rate limit error to be detected")
	}
	if IsRateLimitError(NewConfigError("missing key", nil)) {
		t.Error("Expected config error not to count as rate limit")
	}
}

func TestExtractRetryAfter(t *testing.T) {
	after := 30 * time.Second
	err := NewRateLimitError("slow down", &after, nil)
	got := ExtractRetryAfter(err)
	if got == nil || *got != after {
		t.Errorf("Expected retry-after of %v, got %v", after, got)
	}
	if ExtractRetryAfter(errors.New("plain")) != nil {
		t.Error("Expected nil retry-after for plain error")
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewProviderError("request failed", underlying)
	if err.Error() != "request failed: connection refused" {
		t.Errorf("Unexpected error text: %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("Expected errors.Is to reach the provider error")
	}

	bare := NewConfigError("missing key", nil)
	if bare.Error() != "missing key" {
		t.Errorf("Unexpected error text: %q", bare.Error())
	}
}
