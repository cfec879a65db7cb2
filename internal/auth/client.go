package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
)

const (
	tokenEndpoint  = "/auth/v1/token?grant_type=password"
	logoutEndpoint = "/auth/v1/logout"
	userEndpoint   = "/auth/v1/user"
)

const defaultRequestTimeout = 15 * time.Second

// User is the identity service's view of the signed-in staff member.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the opaque session state returned by the identity service.
// Credentials are never stored, only the resulting tokens.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SessionEventKind classifies a session-change notification.
type SessionEventKind int

const (
	SignedIn SessionEventKind = iota
	SignedOut
)

// SessionEvent is published on the client's notification stream whenever
// the session changes.
type SessionEvent struct {
	Kind  SessionEventKind
	Email string
}

// Client talks to the hosted identity service: email/password sign-in,
// sign-out, current-session lookup and a session-change stream.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	events  chan SessionEvent

	mu      sync.RWMutex
	session *Session
}

// NewClient builds an identity client against the service at baseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  httpClient,
		events:  make(chan SessionEvent, 8),
	}
}

// Events is the session-change notification stream.
func (c *Client) Events() <-chan SessionEvent {
	return c.events
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, apperrors.NewAuthError("Sign-in failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewAuthError("Sign-in failed", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewAuthError("Sign-in failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewAuthError("Sign-in failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAuthError("Invalid email or password",
			fmt.Errorf("identity service status %d - %s", resp.StatusCode, body))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperrors.NewAuthError("Sign-in failed", fmt.Errorf("malformed session response - %w", err))
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
	c.publish(SessionEvent{Kind: SignedIn, Email: session.User.Email})

	return &session, nil
}

// SignOut revokes the current session. Signing out twice is a no-op.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutEndpoint, nil)
	if err != nil {
		return apperrors.NewAuthError("Sign-out failed", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewAuthError("Sign-out failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewAuthError("Sign-out failed",
			fmt.Errorf("identity service status %d - %s", resp.StatusCode, body))
	}

	c.publish(SessionEvent{Kind: SignedOut, Email: session.User.Email})
	return nil
}

// CurrentUser looks the session's user up at the identity service.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	session := c.Session()
	if session == nil {
		return nil, apperrors.NewAuthError("Not signed in", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userEndpoint, nil)
	if err != nil {
		return nil, apperrors.NewAuthError("Session lookup failed", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewAuthError("Session lookup failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewAuthError("Session lookup failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAuthError("Session lookup failed",
			fmt.Errorf("identity service status %d - %s", resp.StatusCode, body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, apperrors.NewAuthError("Session lookup failed", fmt.Errorf("malformed user response - %w", err))
	}
	return &user, nil
}

func (c *Client) publish(e SessionEvent) {
	select {
	case c.events <- e:
	default:
	}
}
