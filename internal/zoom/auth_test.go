package zoom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"zoom-to-vimeo/internal/config"
)

func testAccount() config.AccountConfig {
	return config.AccountConfig{
		Name:         "Account_A",
		AccountID:    "acc-1",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	}
}

func TestToken_BasicExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "client-1" || password != "secret-1" {
			t.Errorf("expected basic auth client-1:secret-1, got %q:%q ok=%v", username, password, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "account_credentials" {
			t.Errorf("expected grant_type account_credentials, got %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("account_id") != "acc-1" {
			t.Errorf("expected account_id acc-1, got %q", r.Form.Get("account_id"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600,"scope":"recording:read"}`))
	}))
	defer server.Close()

	source := NewOAuthTokenSource(server.URL, 5*time.Second)
	token, err := source.Token(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	if token.AccessToken != "tok-123" {
		t.Errorf("expected access token tok-123, got %q", token.AccessToken)
	}
	if len(token.Scopes) != 1 || token.Scopes[0] != "recording:read" {
		t.Errorf("expected parsed scopes, got %v", token.Scopes)
	}
	if !token.ExpiresAt.After(time.Now()) {
		t.Errorf("expected future expiry, got %v", token.ExpiresAt)
	}
}

func TestToken_JWTExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if len(auth) < 8 || auth[:7] != "Bearer " {
			t.Fatalf("expected bearer assertion, got %q", auth)
		}

		parsed, err := jwt.Parse(auth[7:], func(token *jwt.Token) (interface{}, error) {
			return []byte("secret-1"), nil
		})
		if err != nil {
			t.Fatalf("failed to parse assertion: %v", err)
		}
		claims := parsed.Claims.(jwt.MapClaims)
		if claims["iss"] != "client-1" {
			t.Errorf("expected iss client-1, got %v", claims["iss"])
		}
		if claims["aud"] != "zoom" {
			t.Errorf("expected aud zoom, got %v", claims["aud"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-jwt","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	account := testAccount()
	account.Auth = config.AuthJWT

	source := NewOAuthTokenSource(server.URL, 5*time.Second)
	token, err := source.Token(context.Background(), account)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token.AccessToken != "tok-jwt" {
		t.Errorf("expected access token tok-jwt, got %q", token.AccessToken)
	}
}

func TestToken_OAuthErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_client","reason":"Invalid client_id or client_secret"}`))
	}))
	defer server.Close()

	source := NewOAuthTokenSource(server.URL, 5*time.Second)
	_, err := source.Token(context.Background(), testAccount())
	if err == nil {
		t.Fatal("expected error for invalid credentials, got nil")
	}

	authErr, ok := err.(*AuthError)
	if !ok {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Type != "invalid_client" {
		t.Errorf("expected error type invalid_client, got %q", authErr.Type)
	}
	if authErr.Account != "Account_A" {
		t.Errorf("expected account name in error, got %q", authErr.Account)
	}
}

func TestToken_UnreachableEndpoint(t *testing.T) {
	source := NewOAuthTokenSource("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := source.Token(context.Background(), testAccount())
	if err == nil {
		t.Fatal("expected error for unreachable endpoint, got nil")
	}
}
