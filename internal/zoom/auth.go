package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"zoom-to-vimeo/internal/config"
)

// AccessToken represents an OAuth access token with metadata
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	Scopes      []string  `json:"-"`
	ExpiresAt   time.Time `json:"-"`
}

// TokenResponse represents the response from the OAuth token endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AuthError represents authentication-related errors
type AuthError struct {
	Account string
	Type    string
	Reason  string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error for %s, %s: %s (%v)", e.Account, e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("auth error for %s, %s: %s", e.Account, e.Type, e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TokenSource exchanges one account's credentials for a fresh access token.
// Tokens are never cached: every probe pays the exchange so a revoked
// credential fails loudly on the attempt that used it.
type TokenSource interface {
	Token(ctx context.Context, account config.AccountConfig) (*AccessToken, error)
}

// OAuthTokenSource implements Server-to-Server OAuth token exchange.
// The default exchange authenticates with HTTP Basic credentials; accounts
// configured with the jwt auth mode sign a bearer assertion instead.
type OAuthTokenSource struct {
	tokenURL string
	client   *http.Client
}

// NewOAuthTokenSource creates a token source for the given token endpoint
func NewOAuthTokenSource(tokenURL string, timeout time.Duration) *OAuthTokenSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OAuthTokenSource{
		tokenURL: tokenURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Token obtains a fresh access token for the account
func (s *OAuthTokenSource) Token(ctx context.Context, account config.AccountConfig) (*AccessToken, error) {
	data := url.Values{}
	data.Set("grant_type", "account_credentials")
	data.Set("account_id", account.AccountID)

	req, err := http.NewRequestWithContext(ctx, "POST", s.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &AuthError{
			Account: account.Name,
			Type:    "request_creation",
			Reason:  "failed to create OAuth request",
			Err:     err,
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if strings.EqualFold(account.Auth, config.AuthJWT) {
		assertion, err := signAssertion(account)
		if err != nil {
			return nil, &AuthError{
				Account: account.Name,
				Type:    "jwt_generation",
				Reason:  "failed to sign JWT assertion",
				Err:     err,
			}
		}
		req.Header.Set("Authorization", "Bearer "+assertion)
	} else {
		req.SetBasicAuth(account.ClientID, account.ClientSecret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &AuthError{
			Account: account.Name,
			Type:    "request_failed",
			Reason:  "failed to get access token",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	var tokenResponse TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, &AuthError{
			Account: account.Name,
			Type:    "response_parsing",
			Reason:  "failed to parse token response",
			Err:     err,
		}
	}

	if tokenResponse.Error != "" {
		return nil, &AuthError{
			Account: account.Name,
			Type:    tokenResponse.Error,
			Reason:  tokenResponse.Reason,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{
			Account: account.Name,
			Type:    "http_error",
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, tokenResponse.Reason),
		}
	}

	token := &AccessToken{
		AccessToken: tokenResponse.AccessToken,
		TokenType:   tokenResponse.TokenType,
		ExpiresIn:   tokenResponse.ExpiresIn,
		ExpiresAt:   time.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second),
	}
	if tokenResponse.Scope != "" {
		token.Scopes = strings.Fields(tokenResponse.Scope)
	}

	return token, nil
}

// signAssertion signs a JWT assertion for accounts using the jwt auth mode
func signAssertion(account config.AccountConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":      account.ClientID,
		"exp":      now.Add(time.Hour).Unix(),
		"iat":      now.Unix(),
		"aud":      "zoom",
		"appKey":   account.ClientID,
		"tokenExp": now.Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(account.ClientSecret))
}
