// Package upstream performs the single pass-through exchange with the
// completion API. The caller-supplied body is forwarded verbatim and the raw
// response body is preserved; only model and usage are decoded locally.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/turnstile/internal/domain"
	"github.com/davidbz/turnstile/internal/observability"
)

// StatusError is a non-2xx upstream response. The raw body text is preserved
// for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Client wraps the HTTP client for completion API calls.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new upstream client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("upstream API key is required")
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// completionMeta is the subset of the upstream response needed for pricing
// and audit. A missing usage block decodes to zero tokens.
type completionMeta struct {
	Model string       `json:"model"`
	Usage domain.Usage `json:"usage"`
}

// Invoke sends one best-effort completion request. No retry, no streaming.
func (c *Client) Invoke(ctx context.Context, body []byte) (*domain.CompletionResult, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	var meta completionMeta
	if decodeErr := json.Unmarshal(raw, &meta); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	observability.FromContext(ctx).Debug("upstream call succeeded",
		zap.String("model", meta.Model),
		zap.Int("prompt_tokens", meta.Usage.PromptTokens),
		zap.Int("completion_tokens", meta.Usage.CompletionTokens),
	)

	return &domain.CompletionResult{
		Model: meta.Model,
		Usage: meta.Usage,
		Body:  raw,
	}, nil
}
