// pkg/authclient/cookiesink.go
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/domain/models"
)

// HTTPCookieSink mirrors session state through the /auth cookie
// endpoints so the browser's HTTP-only cookies track the in-memory
// session.
type HTTPCookieSink struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPCookieSink targets the /auth endpoints at baseURL.
func NewHTTPCookieSink(baseURL string) *HTTPCookieSink {
	return &HTTPCookieSink{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetCookies calls POST /auth/set-cookies.
func (s *HTTPCookieSink) SetCookies(ctx context.Context, tokens auth.TokenPair, user models.UserSnapshot) error {
	return s.post(ctx, "/auth/set-cookies", map[string]any{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"user":         user,
	})
}

// RefreshUserData calls POST /auth/refresh-user-data; tokens are left
// untouched.
func (s *HTTPCookieSink) RefreshUserData(ctx context.Context, user models.UserSnapshot) error {
	return s.post(ctx, "/auth/refresh-user-data", map[string]any{"user": user})
}

// ClearCookies calls POST /auth/clear-cookies.
func (s *HTTPCookieSink) ClearCookies(ctx context.Context) error {
	return s.post(ctx, "/auth/clear-cookies", map[string]any{})
}

func (s *HTTPCookieSink) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
