package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type cohereRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type cohereResponse struct {
	Message struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// callCohere is the last tier of the fallback chain.
func (c *Client) callCohere(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.cohereKey == "" {
		return "", fmt.Errorf("cohere api key not configured")
	}

	body, err := json.Marshal(cohereRequest{
		Model:       c.CohereModel,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.CohereURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cohereKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("cohere request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cohere status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp cohereResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	text := cohereContentText(apiResp.Message.Content)
	if text == "" {
		return "", fmt.Errorf("no text in cohere response")
	}
	return text, nil
}

// cohereContentText tolerates both content shapes Cohere returns: a list of
// typed blocks, or a bare string.
func cohereContentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var blocks []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil && len(blocks) > 0 {
		return strings.TrimSpace(blocks[0].Text)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}
