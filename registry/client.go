package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

/* Client fetches the desired instance set from the manager service.
 * The manager is the single source of truth for which bots exist and in
 * which state; the gateway only mirrors it.
 */
type Client struct {
	url    string
	apiKey string
	httpc  *http.Client

	static []InstanceConfig
}

// NewClient creates a registry client for the given manager endpoint.
func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 15 * time.Second},
	}
}

// WithStatic pins additional instances that are merged over every fetch.
// Intended for local development against a fake or absent manager.
func (c *Client) WithStatic(instances []InstanceConfig) *Client {
	c.static = instances
	return c
}

// List fetches the current instance configurations.
func (c *Client) List(ctx context.Context) ([]InstanceConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching registry: unexpected status %d", resp.StatusCode)
	}

	var instances []InstanceConfig
	if err := json.NewDecoder(resp.Body).Decode(&instances); err != nil {
		return nil, fmt.Errorf("decoding registry response: %w", err)
	}

	if len(c.static) > 0 {
		instances = append(instances, c.static...)
	}
	return instances, nil
}

// Register submits a new bot token to the manager. New instances start out
// pending and uncached until an operator approves them.
func (c *Client) Register(ctx context.Context, token string, userID int64, username string) error {
	payload := map[string]string{
		"token":    token,
		"user":     fmt.Sprint(userID),
		"username": username,
		"status":   Pending.String(),
		"cache":    NoCache.String(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling register payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building register request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("registering instance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registering instance: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Delete removes an instance from the manager, used when its token turned
// out to be invalid.
func (c *Client) Delete(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/%d/", c.url, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("deleting instance %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("deleting instance %d: unexpected status %d", id, resp.StatusCode)
	}
	return nil
}

/* Snapshot is the last fetched instance set, indexed by token.
 * The webhook endpoint consults it to distinguish unknown tokens (404)
 * from instances that merely have no running pipeline yet.
 */
type Snapshot struct {
	mu      sync.RWMutex
	byToken map[string]InstanceConfig
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{byToken: make(map[string]InstanceConfig)}
}

// Replace swaps the snapshot contents for a freshly fetched instance set.
func (s *Snapshot) Replace(instances []InstanceConfig) {
	byToken := make(map[string]InstanceConfig, len(instances))
	for _, inst := range instances {
		byToken[inst.Token] = inst
	}
	s.mu.Lock()
	s.byToken = byToken
	s.mu.Unlock()
}

// Lookup returns the config for a token, if the registry knows it.
func (s *Snapshot) Lookup(token string) (InstanceConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.byToken[token]
	return inst, ok
}

// Forget drops one token from the snapshot.
func (s *Snapshot) Forget(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// Len reports how many instances the snapshot holds.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
