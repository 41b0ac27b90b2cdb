package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewWithoutAPIKey(t *testing.T) {
	if c := New("https://example.invalid/v1/", "", "some-model"); c != nil {
		t.Error("expected nil client when no API key is configured")
	}
}

func TestGenerateFeedbackNilClient(t *testing.T) {
	var c *Client
	feedback := c.GenerateFeedback(context.Background(), "some performance data", "Asha")
	if !IsErrorFeedback(feedback) {
		t.Errorf("nil client should produce error feedback, got %q", feedback)
	}
	if !strings.Contains(feedback, "unavailable") {
		t.Errorf("expected service-unavailable message, got %q", feedback)
	}
}

func TestGenerateFeedbackNoContext(t *testing.T) {
	c := New("https://example.invalid/v1/", "test-key", "some-model")
	if c == nil {
		t.Fatal("expected non-nil client with API key")
	}

	for _, performanceContext := range []string{"", NoDataContext} {
		feedback := c.GenerateFeedback(context.Background(), performanceContext, "Asha")
		if !IsErrorFeedback(feedback) {
			t.Errorf("context %q should produce error feedback, got %q", performanceContext, feedback)
		}
	}
}

func TestClassifyAPIErrorTruncation(t *testing.T) {
	long := errors.New(strings.Repeat("é", 300))
	msg := classifyAPIError(long)

	if !utf8.ValidString(msg) {
		t.Errorf("truncated error message is not valid UTF-8: %q", msg)
	}
	if !strings.Contains(msg, strings.Repeat("é", 200)) {
		t.Error("expected the first 200 characters of the error detail")
	}
	if strings.Contains(msg, strings.Repeat("é", 201)) {
		t.Error("expected the detail to be cut at 200 characters")
	}
}

func TestClassifyAPIErrorShortDetail(t *testing.T) {
	msg := classifyAPIError(errors.New("connection refused"))
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("expected full short detail, got %q", msg)
	}
}

func TestIsErrorFeedback(t *testing.T) {
	tests := []struct {
		feedback string
		want     bool
	}{
		{"Error: AI feedback generation service is unavailable due to configuration issues.", true},
		{"Error: No processed data was provided to generate feedback.", true},
		{"## 1. Great job, Asha!", false},
		{"", false},
		{"An error occurred earlier", false},
	}

	for _, tt := range tests {
		if got := IsErrorFeedback(tt.feedback); got != tt.want {
			t.Errorf("IsErrorFeedback(%q) = %v, want %v", tt.feedback, got, tt.want)
		}
	}
}
