package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNoSession is returned for authenticated calls made before Login or after Logout
var ErrNoSession = errors.New("apiclient: no active session")

// Session holds the API base URL and the bearer token explicitly. It is safe for
// concurrent use; Logout invalidates it for every goroutine.
type Session struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewSession creates a session; token may be empty and set later by Login
func NewSession(baseURL, token string) *Session {
	return &Session{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		token: token,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (s *Session) WithHTTPClient(c *http.Client) *Session {
	s.httpClient = c
	return s
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Account is the logged-in principal returned by Login
type Account struct {
	ID          uint   `json:"id"`
	LoginID     string `json:"loginId"`
	Name        string `json:"name"`
	AccountType string `json:"accountType"`
	Role        string `json:"role"`
	CompanyID   *uint  `json:"companyId,omitempty"`
	FacilityID  *uint  `json:"facilityId,omitempty"`
}

// Login exchanges credentials for a token and stores it in the session
func (s *Session) Login(ctx context.Context, loginID, password string) (*Account, error) {
	body, err := json.Marshal(map[string]string{"loginId": loginID, "password": password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		User  Account `json:"user"`
		Token string  `json:"token"`
	}
	if err := s.send(req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("apiclient: login response carried no token")
	}
	s.setToken(out.Token)
	return &out.User, nil
}

// Logout revokes the token server-side and clears it locally. The local token is
// cleared even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	defer s.setToken("")
	return s.send(req, nil)
}

// newRequest builds an authenticated request; body is JSON-encoded when non-nil
func (s *Session) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNoSession
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// send performs req and decodes a 2xx JSON body into out (when out is non-nil)
func (s *Session) send(req *http.Request, out interface{}) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HandleErrorResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}
