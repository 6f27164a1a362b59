package utils

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenTimeout bounds a single token exchange
const tokenTimeout = 10 * time.Second

// TokenCache exchanges client credentials for a bearer token and keeps the
// token until it expires. It is safe for concurrent use; only one exchange
// runs at a time.
type TokenCache struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenCache creates a token cache for the client-credentials grant.
// Credentials are sent with HTTP basic auth. A nil httpClient uses a client
// with a 10 second timeout.
func NewTokenCache(tokenURL, clientID, clientSecret string, httpClient *http.Client, logger *zap.Logger) *TokenCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: tokenTimeout}
	}

	return &TokenCache{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// AccessToken returns a valid access token, exchanging credentials when the
// cached token is missing or expired. Failures are logged and returned.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if token is already cached in memory and valid
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.config.Token(ctx)
	if err != nil {
		c.logger.Error("Failed to get access token",
			zap.String("token_url", c.config.TokenURL),
			zap.Error(err))
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	c.token = token
	c.logger.Debug("Access token refreshed", zap.Time("expiry", token.Expiry))
	return token.AccessToken, nil
}
