package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIdentityClient_SignInUsesTokenClaims(t *testing.T) {
	t.Parallel()

	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	idToken := signedToken(t, jwt.MapClaims{"email": "ana@example.com", "exp": exp.Unix()})

	var gotPath, gotKey string
	var gotBody passwordRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(passwordResponse{
			IDToken:      idToken,
			RefreshToken: "refresh-1",
			ExpiresIn:    "3600",
		})
	}))
	t.Cleanup(server.Close)

	c := NewIdentityClient(server.URL+"/v1/", server.URL, "key-123")
	s, err := c.SignIn(context.Background(), " ana@example.com ", "hunter22")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	if gotPath != "/v1/accounts:signInWithPassword" || gotKey != "key-123" {
		t.Fatalf("request path=%q key=%q", gotPath, gotKey)
	}
	if gotBody.Email != "ana@example.com" || gotBody.Password != "hunter22" || !gotBody.ReturnSecureToken {
		t.Fatalf("request body = %#v", gotBody)
	}
	if s.Email != "ana@example.com" || s.RefreshToken != "refresh-1" || !s.ExpiresAt.Equal(exp) {
		t.Fatalf("session = %#v", s)
	}
}

func TestIdentityClient_SignUpFallsBackToExpiresIn(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"email":"new@example.com","idToken":"opaque","refreshToken":"r","expiresIn":"60"}`)
	}))
	t.Cleanup(server.Close)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewIdentityClient(server.URL, server.URL, "")
	c.now = func() time.Time { return now }

	s, err := c.SignUp(context.Background(), "new@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if gotPath != "/accounts:signUp" {
		t.Fatalf("path = %q", gotPath)
	}
	if s.Email != "new@example.com" || !s.ExpiresAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("session = %#v", s)
	}
}

func TestIdentityClient_ErrorCodesMapToSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		want    error
	}{
		{"EMAIL_NOT_FOUND", ErrInvalidCredentials},
		{"INVALID_LOGIN_CREDENTIALS", ErrInvalidCredentials},
		{"EMAIL_EXISTS", ErrEmailExists},
		{"WEAK_PASSWORD : Password should be at least 6 characters", ErrWeakPassword},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 400, "message": tt.message},
			})
		}))

		c := NewIdentityClient(server.URL, server.URL, "k")
		_, err := c.SignIn(context.Background(), "a@b", "pw")
		server.Close()

		if !errors.Is(err, tt.want) {
			t.Fatalf("message %q: err = %v, want %v", tt.message, err, tt.want)
		}
		var perr *ProviderError
		if !errors.As(err, &perr) || perr.Status != http.StatusBadRequest {
			t.Fatalf("message %q: err = %#v, want ProviderError 400", tt.message, err)
		}
	}
}

func TestIdentityClient_RejectsEmptyCredentials(t *testing.T) {
	c := NewIdentityClient("http://127.0.0.1:1", "", "")
	if _, err := c.SignIn(context.Background(), " ", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("SignIn err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := c.Refresh(context.Background(), Session{Email: "a@b"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Refresh err = %v, want ErrInvalidCredentials", err)
	}
}

func TestIdentityClient_Refresh(t *testing.T) {
	t.Parallel()

	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		gotForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"refresh_token": r.PostForm.Get("refresh_token"),
		}
		_, _ = io.WriteString(w, `{"id_token":"new-id","refresh_token":"new-refresh","expires_in":"3600"}`)
	}))
	t.Cleanup(server.Close)

	c := NewIdentityClient(server.URL, server.URL, "k")
	s, err := c.Refresh(context.Background(), Session{Email: "a@b", IDToken: "old", RefreshToken: "old-refresh"})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if gotForm["grant_type"] != "refresh_token" || gotForm["refresh_token"] != "old-refresh" {
		t.Fatalf("form = %v", gotForm)
	}
	if s.Email != "a@b" || s.IDToken != "new-id" || s.RefreshToken != "new-refresh" {
		t.Fatalf("session = %#v", s)
	}
}
