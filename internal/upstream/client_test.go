package upstream_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/turnstile/internal/upstream"
)

func newClient(t *testing.T, baseURL string) *upstream.Client {
	t.Helper()

	client, err := upstream.NewClient(upstream.Config{
		APIKey:  "sk-service-key",
		BaseURL: baseURL,
		Timeout: 5,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := upstream.NewClient(upstream.Config{
		APIKey:  "",
		BaseURL: "http://localhost",
		Timeout: 5,
	})
	require.Error(t, err)
}

func TestClient_Invoke(t *testing.T) {
	ctx := context.Background()
	requestBody := []byte(`{"model":"gpt-3.5-turbo","messages":[{"role":"user","content":"hi"}]}`)

	t.Run("forwards body verbatim and parses model and usage", func(t *testing.T) {
		responseBody := `{"id":"cmpl-1","model":"gpt-3.5-turbo",` +
			`"usage":{"prompt_tokens":100,"completion_tokens":50,"total_tokens":150},` +
			`"choices":[{"message":{"content":"hello"}}]}`

		var gotBody []byte
		var gotAuth, gotContentType, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(responseBody))
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		result, err := client.Invoke(ctx, requestBody)

		require.NoError(t, err)
		require.Equal(t, requestBody, gotBody)
		require.Equal(t, "Bearer sk-service-key", gotAuth)
		require.Equal(t, "application/json", gotContentType)
		require.Equal(t, "/chat/completions", gotPath)

		require.Equal(t, "gpt-3.5-turbo", result.Model)
		require.Equal(t, 100, result.Usage.PromptTokens)
		require.Equal(t, 50, result.Usage.CompletionTokens)
		require.JSONEq(t, responseBody, string(result.Body))
	})

	t.Run("missing usage block decodes to zero tokens", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id":"cmpl-2","model":"gpt-4"}`))
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		result, err := client.Invoke(ctx, requestBody)

		require.NoError(t, err)
		require.Equal(t, "gpt-4", result.Model)
		require.Zero(t, result.Usage.PromptTokens)
		require.Zero(t, result.Usage.CompletionTokens)
	})

	t.Run("non-2xx preserves status and raw body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		_, err := client.Invoke(ctx, requestBody)

		require.Error(t, err)

		var statusErr *upstream.StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
		require.Contains(t, statusErr.Body, "rate limited")
	})

	t.Run("malformed success body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newClient(t, server.URL)
		_, err := client.Invoke(ctx, requestBody)
		require.Error(t, err)
	})

	t.Run("connection failure is a transport error", func(t *testing.T) {
		client := newClient(t, "http://127.0.0.1:1")

		_, err := client.Invoke(ctx, requestBody)

		require.Error(t, err)

		var statusErr *upstream.StatusError
		require.NotErrorAs(t, err, &statusErr)
	})
}
