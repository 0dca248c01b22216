package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"uefbridge/pkg/logging"
)

// DefaultRefreshTimeout bounds a single refresh request to the Token
// Provider.
const DefaultRefreshTimeout = 30 * time.Second

// refreshResponse is the Token Provider's reply to a refresh request.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Refresher exchanges a refresh credential for a new bearer credential at
// the Token Provider endpoint. Concurrent refresh demands for the same
// endpoint collapse into a single request.
type Refresher struct {
	httpClient *http.Client
	endpoint   string
	clientID   string
	group      singleflight.Group
}

// RefresherOption configures the Refresher.
type RefresherOption func(*Refresher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) RefresherOption {
	return func(r *Refresher) {
		r.httpClient = httpClient
	}
}

// NewRefresher creates a refresh client for the given Token Provider
// endpoint.
func NewRefresher(endpoint, clientID string, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		httpClient: &http.Client{Timeout: DefaultRefreshTimeout},
		endpoint:   endpoint,
		clientID:   clientID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Endpoint returns the configured refresh endpoint.
func (r *Refresher) Endpoint() string {
	return r.endpoint
}

// Refresh exchanges refreshToken for a new bearer credential. If the
// provider rotates the refresh token, the rotated value is carried in the
// returned token; otherwise the input refresh token is retained so later
// refreshes keep working.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if r.endpoint == "" {
		return nil, fmt.Errorf("no refresh endpoint configured")
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	result, err, shared := r.group.Do(r.endpoint, func() (interface{}, error) {
		return r.doRefresh(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug("Tokens", "refresh request deduplicated for %s", r.endpoint)
	}
	return result.(*oauth2.Token), nil
}

func (r *Refresher) doRefresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	if r.clientID != "" {
		data.Set("client_id", r.clientID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.Debug("Tokens", "refresh rejected with status %d", resp.StatusCode)
		return nil, fmt.Errorf("refresh request failed with status %d", resp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if parsed.AccessToken == "" {
		return nil, fmt.Errorf("refresh response carried no access token")
	}

	token := &oauth2.Token{
		AccessToken:  parsed.AccessToken,
		TokenType:    parsed.TokenType,
		RefreshToken: parsed.RefreshToken,
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	if parsed.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	}
	return token, nil
}
