package usersettings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the user-settings REST service.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient creates a settings client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// GetUserSettings fetches one user's settings record.
func (c *Client) GetUserSettings(ctx context.Context, userID int64) (*UserSettings, error) {
	url := fmt.Sprintf("%s/users/%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building settings request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching user settings: unexpected status %d", resp.StatusCode)
	}

	var settings UserSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return nil, fmt.Errorf("decoding user settings: %w", err)
	}
	return &settings, nil
}

// GetLangs lists all languages the settings service supports.
func (c *Client) GetLangs(ctx context.Context) ([]Lang, error) {
	url := fmt.Sprintf("%s/languages/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building languages request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching languages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching languages: unexpected status %d", resp.StatusCode)
	}

	var langs []Lang
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, fmt.Errorf("decoding languages: %w", err)
	}
	return langs, nil
}

// UpdateUserSettings creates or replaces a user's settings record. The
// service accepts language codes on write and returns full Lang values on
// read.
func (c *Client) UpdateUserSettings(ctx context.Context, settings UserSettings, langCodes []string) error {
	payload := struct {
		UserID       int64    `json:"user_id"`
		LastName     string   `json:"last_name"`
		FirstName    string   `json:"first_name"`
		Username     string   `json:"username"`
		Source       string   `json:"source"`
		AllowedLangs []string `json:"allowed_langs"`
	}{
		UserID:       settings.UserID,
		LastName:     settings.LastName,
		FirstName:    settings.FirstName,
		Username:     settings.Username,
		Source:       settings.Source,
		AllowedLangs: langCodes,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling settings payload: %w", err)
	}

	url := fmt.Sprintf("%s/users/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building settings update: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("updating user settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("updating user settings: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// UpdateUserActivity records that a user interacted with a bot.
func (c *Client) UpdateUserActivity(ctx context.Context, userID int64) error {
	url := fmt.Sprintf("%s/users/%d/update_activity", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("building activity request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("updating user activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("updating user activity: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// IsDonationNoticeDue asks whether a chat should receive the periodic
// support notice.
func (c *Client) IsDonationNoticeDue(ctx context.Context, chatID int64) (bool, error) {
	url := fmt.Sprintf("%s/donate_notifications/%d/is_need_send", c.baseURL, chatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("building notice request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, fmt.Errorf("checking donation notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("checking donation notice: unexpected status %d", resp.StatusCode)
	}

	var due bool
	if err := json.NewDecoder(resp.Body).Decode(&due); err != nil {
		return false, fmt.Errorf("decoding notice response: %w", err)
	}
	return due, nil
}

// MarkDonationNoticeSent records that the support notice was shown.
func (c *Client) MarkDonationNoticeSent(ctx context.Context, chatID int64) error {
	url := fmt.Sprintf("%s/donate_notifications/%d", c.baseURL, chatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("building notice request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("marking donation notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("marking donation notice: unexpected status %d", resp.StatusCode)
	}
	return nil
}
