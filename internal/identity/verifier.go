// Package identity verifies inbound bearer credentials against the identity
// provider's token introspection endpoint. Verification itself is delegated to
// the provider; only the audience check against the configured client ID is
// performed locally.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/turnstile/internal/domain"
	"github.com/davidbz/turnstile/internal/observability"
)

const bearerScheme = "Bearer "

// Verifier exchanges bearer tokens for caller identities.
type Verifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
}

// NewVerifier creates a new identity verifier.
func NewVerifier(config Config) (*Verifier, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	return &Verifier{
		clientID:     config.ClientID,
		tokenInfoURL: config.TokenInfoURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// tokenInfo is the subset of the introspection response this service reads.
type tokenInfo struct {
	Email    string `json:"email"`
	Audience string `json:"aud"`
}

// Verify validates the Authorization header and the token audience.
// A missing header, a missing Bearer scheme, an empty token, a token the
// provider rejects, and an audience mismatch all yield the same
// ErrUnauthenticated failure. One outbound call per invocation, no caching.
func (v *Verifier) Verify(
	ctx context.Context,
	authorizationHeader string,
) (domain.CallerIdentity, error) {
	token, ok := strings.CutPrefix(authorizationHeader, bearerScheme)
	if !ok || strings.TrimSpace(token) == "" {
		return domain.CallerIdentity{}, fmt.Errorf(
			"%w: missing bearer credential", domain.ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)

	info, err := v.introspect(ctx, token)
	if err != nil {
		return domain.CallerIdentity{}, err
	}

	if info.Audience != v.clientID {
		observability.FromContext(ctx).Warn("token audience mismatch",
			zap.String("audience", info.Audience),
		)
		return domain.CallerIdentity{}, fmt.Errorf(
			"%w: token audience does not match client ID", domain.ErrUnauthenticated)
	}

	if info.Email == "" {
		return domain.CallerIdentity{}, fmt.Errorf(
			"%w: token carries no subject", domain.ErrUnauthenticated)
	}

	return domain.CallerIdentity{
		Subject:  info.Email,
		Audience: info.Audience,
	}, nil
}

// introspect exchanges the token with the identity provider.
func (v *Verifier) introspect(ctx context.Context, token string) (tokenInfo, error) {
	query := url.Values{}
	query.Set("id_token", token)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		v.tokenInfoURL+"?"+query.Encode(),
		nil,
	)
	if err != nil {
		return tokenInfo{}, fmt.Errorf("failed to create introspection request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return tokenInfo{}, fmt.Errorf("%w: introspection request failed: %w",
			domain.ErrUnauthenticated, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return tokenInfo{}, fmt.Errorf("%w: identity provider returned status %d: %s",
			domain.ErrUnauthenticated, resp.StatusCode, string(body))
	}

	var info tokenInfo
	if decodeErr := json.NewDecoder(resp.Body).Decode(&info); decodeErr != nil {
		return tokenInfo{}, fmt.Errorf("%w: failed to decode introspection response: %w",
			domain.ErrUnauthenticated, decodeErr)
	}

	return info, nil
}
