package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"realestate-insights/metrics"
	"realestate-insights/utils"
)

const (
	// expiryBuffer treats a token as expired this long before its claim says.
	expiryBuffer = 60 * time.Second
	// fallbackTTL is assumed when the token carries no readable exp claim.
	fallbackTTL = 50 * time.Minute
)

// Credentials are the static login fields posted to /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Session owns the bearer token and its expiry. Concurrent refreshes are
// collapsed into one login exchange whose result every caller observes.
type Session struct {
	baseURL string
	creds   Credentials
	client  *http.Client
	logger  *utils.Logger
	now     func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	refresh singleflight.Group
}

// NewSession creates a Session that logs in against baseURL.
func NewSession(baseURL string, creds Credentials, client *http.Client, logger *utils.Logger) *Session {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		client:  client,
		logger:  logger.With("session"),
		now:     time.Now,
	}
}

// IsTokenExpired reports whether the cached token is missing or within
// expiryBuffer of its expiry.
func (s *Session) IsTokenExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired(s.token, s.expiresAt)
}

func (s *Session) expired(token string, expiresAt time.Time) bool {
	return token == "" || !s.now().Before(expiresAt.Add(-expiryBuffer))
}

// ExpiresAt returns the expiry of the cached token.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Invalidate drops the cached token so the next EnsureValidToken logs in.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// EnsureValidToken returns the cached token, logging in first when it is
// expired. Callers arriving while a login is in flight wait for that login.
func (s *Session) EnsureValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token, expiresAt := s.token, s.expiresAt
	s.mu.RUnlock()

	if !s.expired(token, expiresAt) {
		return token, nil
	}
	return s.Refresh(ctx)
}

// Refresh performs a login, or joins the one already running. A token that
// became fresh since the caller looked is returned without a new login. The
// shared exchange does not inherit ctx cancellation; ctx only bounds this
// caller's wait.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	ch := s.refresh.DoChan("login", func() (any, error) {
		s.mu.RLock()
		token, expiresAt := s.token, s.expiresAt
		s.mu.RUnlock()
		if !s.expired(token, expiresAt) {
			return token, nil
		}
		return s.Login(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Login exchanges the credentials for a token and stores it with its expiry.
// On failure the previous token is left untouched.
func (s *Session) Login(ctx context.Context) (string, error) {
	token, err := s.login(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		s.logger.Error().Err(err).Msg("[session] Login failed")
		return "", err
	}

	expiresAt, err := tokenExpiry(token)
	if err != nil {
		expiresAt = s.now().Add(fallbackTTL)
		s.logger.Debug().Err(err).Time("expires_at", expiresAt).Msg("[session] Using fallback token lifetime")
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	s.logger.Info().Time("expires_at", expiresAt).Msg("[session] Token refreshed")
	return token, nil
}

func (s *Session) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(s.creds)
	if err != nil {
		return "", &AuthError{Op: "login", Err: fmt.Errorf("encode credentials: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", &AuthError{Op: "login", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &AuthError{Op: "login", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &AuthError{Op: "login", Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{
			Op:         "login",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", truncateBody(payload)),
		}
	}

	var lr loginResponse
	if err := json.Unmarshal(payload, &lr); err != nil {
		return "", &AuthError{Op: "login", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	token := lr.Token
	if token == "" {
		token = lr.AccessToken
	}
	if token == "" {
		return "", &AuthError{Op: "login", StatusCode: resp.StatusCode, Err: fmt.Errorf("response carried no token")}
	}
	return token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// catalog API is the only party that checks it.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errUndecodableToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errUndecodableToken, err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("%w: no exp claim", errUndecodableToken)
	}
	return exp.Time, nil
}
