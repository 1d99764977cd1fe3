package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adoption-service/internal/models"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrIdentityUpstream = errors.New("identity service error")
)

// Session is the authenticated caller as reported by the identity
// service. The role never changes for the lifetime of an account.
type Session struct {
	UserID string
	Role   models.Role
}

// SessionVerifier validates a bearer token.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (Session, error)
}

// ProfileStore resolves profile records for display.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	BulkProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error)
}

// Client talks to the identity service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// VerifySession validates the token and returns the session identity.
func (c *Client) VerifySession(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidToken
	}

	body, _ := json.Marshal(map[string]string{"token": token})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions/verify", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Session{}, ErrInvalidToken
	default:
		return Session{}, fmt.Errorf("%w: status=%d", ErrIdentityUpstream, resp.StatusCode)
	}

	var out struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: invalid json: %v", ErrIdentityUpstream, err)
	}

	session := Session{UserID: strings.TrimSpace(out.UserID), Role: models.Role(out.Role)}
	if session.UserID == "" || !session.Role.Valid() {
		return Session{}, ErrInvalidToken
	}
	return session, nil
}

// GetProfile fetches a single profile record.
func (c *Client) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/profiles/"+userID, nil)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Profile{}, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.Profile{}, fmt.Errorf("%w: status=%d", ErrIdentityUpstream, resp.StatusCode)
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return models.Profile{}, fmt.Errorf("%w: invalid json: %v", ErrIdentityUpstream, err)
	}
	return profile, nil
}

// BulkProfiles fetches multiple profiles in one call, keyed by id.
// Unknown ids are simply absent from the result.
func (c *Client) BulkProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	if len(userIDs) == 0 {
		return map[string]models.Profile{}, nil
	}

	body, _ := json.Marshal(map[string][]string{"ids": userIDs})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/profiles/bulk", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", ErrIdentityUpstream, resp.StatusCode)
	}

	var out struct {
		Profiles []models.Profile `json:"profiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrIdentityUpstream, err)
	}

	byID := make(map[string]models.Profile, len(out.Profiles))
	for _, p := range out.Profiles {
		byID[p.ID] = p
	}
	return byID, nil
}
