package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage carries provider diagnostics back to callers.
type Usage struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// RetryableError indicates a transient provider failure worth trying the
// next model or provider for.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable provider error (status %d): %s", e.StatusCode, e.Message)
}

// IsRetryable checks if an error is worth retrying on another model.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Client runs chat completions through a layered fallback chain: the
// OpenRouter primary model, then the OpenRouter fallback model, then Cohere
// with the messages flattened to a single prompt. The order is fixed; a
// non-retryable primary failure still aborts the chain.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger

	openRouterKey string
	cohereKey     string

	PrimaryModel  string
	FallbackModel string
	CohereModel   string

	// Endpoint URLs, overridable in tests.
	OpenRouterURL string
	CohereURL     string
}

const (
	defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultCohereURL     = "https://api.cohere.ai/v1/chat"
)

func NewClient(openRouterKey, cohereKey, primaryModel, fallbackModel, cohereModel string, log *slog.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		log:           log,
		openRouterKey: openRouterKey,
		cohereKey:     cohereKey,
		PrimaryModel:  primaryModel,
		FallbackModel: fallbackModel,
		CohereModel:   cohereModel,
		OpenRouterURL: defaultOpenRouterURL,
		CohereURL:     defaultCohereURL,
	}
}

// Complete runs the fallback chain and returns the first non-empty
// completion.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, Usage, error) {
	var lastErr error
	for _, model := range []string{c.PrimaryModel, c.FallbackModel} {
		text, err := c.callOpenRouter(ctx, model, messages, maxTokens, temperature)
		if err == nil && text != "" {
			return text, Usage{Provider: "openrouter", Model: model}, nil
		}
		if err != nil && !IsRetryable(err) {
			lastErr = err
			break
		}
		c.log.Warn("model failed, trying next", "model", model, "error", err)
		lastErr = err
	}

	if c.cohereKey == "" {
		return "", Usage{}, fmt.Errorf("all models failed: %w", lastErr)
	}
	text, err := c.callCohere(ctx, flattenMessages(messages), maxTokens, temperature)
	if err != nil {
		return "", Usage{}, fmt.Errorf("all providers failed: %w (openrouter: %v)", err, lastErr)
	}
	return text, Usage{Provider: "cohere", Model: c.CohereModel}, nil
}

// flattenMessages converts a chat transcript into Cohere's single-prompt
// form: system turns become instructions, user turns pass through.
func flattenMessages(messages []Message) string {
	var parts []string
	for _, m := range messages {
		switch m.Role {
		case "system":
			parts = append(parts, "Instructions: "+m.Content)
		case "user":
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
