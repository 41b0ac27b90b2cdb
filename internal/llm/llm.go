// Package llm generates narrative feedback for an analysis result through
// an OpenAI-compatible chat API.
//
// Failures at this boundary never surface as Go errors: GenerateFeedback
// returns a string prefixed with "Error:" instead, so a report can still be
// rendered (with a visible warning) when the service is unavailable.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/arjunverma/scoresight/internal/llm/prompts"
)

// ErrorPrefix marks a failed feedback generation. Callers check the prefix
// rather than relying on error values.
const ErrorPrefix = "Error:"

// Client wraps an OpenAI-compatible API client for feedback generation.
// A nil Client is valid and reports the service as unavailable.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a feedback client. Returns nil (service unavailable) when no
// API key is configured, matching the degraded mode of the pipeline.
func New(baseURL, apiKey, modelName string) *Client {
	if apiKey == "" {
		slog.Warn("no LLM API key configured, feedback generation disabled")
		return nil
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// IsErrorFeedback reports whether a narrative string signals a generation
// failure.
func IsErrorFeedback(feedback string) bool {
	return strings.HasPrefix(feedback, ErrorPrefix)
}

// GenerateFeedback sends the formatted performance context to the model and
// returns its narrative, or an "Error:"-prefixed string describing why no
// narrative could be produced.
func (c *Client) GenerateFeedback(ctx context.Context, performanceContext, studentName string) string {
	if c == nil {
		return "Error: AI feedback generation service is unavailable due to configuration issues."
	}
	if performanceContext == "" || performanceContext == NoDataContext {
		return "Error: No processed data was provided to generate feedback."
	}

	prompt := prompts.BuildFeedbackPrompt(studentName, performanceContext)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.6,
	})
	if err != nil {
		slog.Error("feedback API call failed", "student", studentName, "error", err)
		return classifyAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "Error: The AI did not generate any feedback content, or the response was empty."
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "Error: The AI generated an empty feedback string."
	}
	return text
}

func classifyAPIError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return "Error generating feedback: The API key is invalid or permissions are denied."
		case 429:
			return "Error generating feedback: The AI service is rate limiting requests. Please try again later."
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "Error generating feedback: The request to the AI service timed out. Please try again later."
	}

	msg := err.Error()
	if r := []rune(msg); len(r) > 200 {
		msg = string(r[:200])
	}
	return fmt.Sprintf("Error generating feedback: An unexpected error occurred with the AI service. Details: %s", msg)
}
