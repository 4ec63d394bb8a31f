package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists is returned when signing up with a registered email.
	ErrEmailExists = errors.New("email already registered")
	// ErrWeakPassword is returned when the provider rejects a new password.
	ErrWeakPassword = errors.New("password too weak")
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1"
	requestTimeout     = 10 * time.Second
	maxErrorBody       = 4 << 10
)

// Provider signs users in and up.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) (Session, error)
}

// Ensure IdentityClient implements Provider at compile time.
var _ Provider = (*IdentityClient)(nil)

// ProviderError is an error reported by the identity provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider returned status %d", e.Status)
	}
	return fmt.Sprintf("identity provider returned status %d: %s", e.Status, e.Message)
}

// Is maps provider error codes onto the package sentinels.
func (e *ProviderError) Is(target error) bool {
	code := e.code()
	switch target {
	case ErrInvalidCredentials:
		return code == "EMAIL_NOT_FOUND" || code == "INVALID_PASSWORD" ||
			code == "INVALID_LOGIN_CREDENTIALS" || code == "INVALID_EMAIL" ||
			code == "INVALID_REFRESH_TOKEN" || code == "TOKEN_EXPIRED"
	case ErrEmailExists:
		return code == "EMAIL_EXISTS"
	case ErrWeakPassword:
		return code == "WEAK_PASSWORD"
	}
	return false
}

// code is the leading token of messages such as "WEAK_PASSWORD : Password
// should be at least 6 characters".
func (e *ProviderError) code() string {
	code, _, _ := strings.Cut(e.Message, " ")
	return strings.TrimSpace(code)
}

// IdentityClient talks to the Identity Toolkit REST API.
type IdentityClient struct {
	identityURL string
	tokenURL    string
	apiKey      string
	http        *http.Client
	now         func() time.Time
}

// NewIdentityClient builds a client. Empty URLs select the public endpoints.
func NewIdentityClient(identityURL, tokenURL, apiKey string) *IdentityClient {
	identityURL = strings.TrimRight(strings.TrimSpace(identityURL), "/")
	if identityURL == "" {
		identityURL = DefaultIdentityURL
	}
	tokenURL = strings.TrimRight(strings.TrimSpace(tokenURL), "/")
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &IdentityClient{
		identityURL: identityURL,
		tokenURL:    tokenURL,
		apiKey:      strings.TrimSpace(apiKey),
		http:        &http.Client{Timeout: requestTimeout},
		now:         time.Now,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignIn exchanges an email and password for a session.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.password(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp registers a new account and returns its session.
func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (Session, error) {
	return c.password(ctx, "accounts:signUp", email, password)
}

func (c *IdentityClient) password(ctx context.Context, method, email, password string) (Session, error) {
	if c == nil {
		return Session{}, fmt.Errorf("identity client is nil")
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%s: %w", method, ErrInvalidCredentials)
	}

	payload, err := json.Marshal(passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return Session{}, fmt.Errorf("encode request: %w", err)
	}

	var resp passwordResponse
	endpoint := c.identityURL + "/" + method
	if err := c.post(ctx, endpoint, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return Session{}, err
	}
	if resp.Email == "" {
		resp.Email = email
	}
	return c.session(resp.Email, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// Refresh exchanges the session's refresh token for a fresh ID token.
func (c *IdentityClient) Refresh(ctx context.Context, s Session) (Session, error) {
	if c == nil {
		return Session{}, fmt.Errorf("identity client is nil")
	}
	if s.RefreshToken == "" {
		return Session{}, fmt.Errorf("refresh: %w", ErrInvalidCredentials)
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.RefreshToken},
	}

	var resp refreshResponse
	endpoint := c.tokenURL + "/token"
	if err := c.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp); err != nil {
		return Session{}, err
	}
	return c.session(s.Email, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
}

// session prefers the token's own claims and falls back to expiresIn.
func (c *IdentityClient) session(email, idToken, refreshToken, expiresIn string) (Session, error) {
	if idToken == "" {
		return Session{}, fmt.Errorf("identity response has no id token")
	}
	s := Session{Email: email, IDToken: idToken, RefreshToken: refreshToken}
	if claims, err := ParseIDToken(idToken); err == nil {
		if claims.Email != "" {
			s.Email = claims.Email
		}
		s.ExpiresAt = claims.ExpiresAt
	}
	if s.ExpiresAt.IsZero() {
		if secs, err := strconv.Atoi(strings.TrimSpace(expiresIn)); err == nil && secs > 0 {
			s.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second)
		}
	}
	return s, nil
}

func (c *IdentityClient) post(ctx context.Context, endpoint, contentType string, body io.Reader, dest any) error {
	if c.apiKey != "" {
		endpoint += "?" + url.Values{"key": {c.apiKey}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &ProviderError{Status: resp.StatusCode, Message: providerMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// providerMessage reads {"error": {"message": ...}} bodies.
func providerMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
