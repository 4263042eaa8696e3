package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

/* Client talks to the archival job backend: create a job, check it by id,
 * fetch the finished artifact. The public download link is served from a
 * separate, user-reachable base URL.
 */
type Client struct {
	baseURL   string
	publicURL string
	apiKey    string
	httpc     *http.Client
}

// NewClient creates an archival backend client.
func NewClient(baseURL, publicURL, apiKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		publicURL: publicURL,
		apiKey:    apiKey,
		// Artifact downloads may take a while; no overall timeout here,
		// cancellation flows through the request context.
		httpc: &http.Client{},
	}
}

// CreateJobParams describe the archive to build.
type CreateJobParams struct {
	ObjectID     int64      `json:"object_id"`
	ObjectType   ObjectType `json:"object_type"`
	FileFormat   string     `json:"file_format"`
	AllowedLangs []string   `json:"allowed_langs"`
}

// CreateJob submits a new archival job and returns its server-assigned id.
func (c *Client) CreateJob(ctx context.Context, params CreateJobParams) (*Job, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling job params: %w", err)
	}

	url := fmt.Sprintf("%s/api/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building create-job request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.doJob(req, "creating job")
}

// GetJob fetches the current state of a job.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	url := fmt.Sprintf("%s/api/check_archive/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building check-job request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	return c.doJob(req, "checking job")
}

func (c *Client) doJob(req *http.Request, action string) (*Job, error) {
	ctx, cancel := context.WithTimeout(req.Context(), 30*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", action, resp.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	return &job, nil
}

// PublicLink returns the time-limited, user-reachable download URL for a
// finished job's artifact.
func (c *Client) PublicLink(id string) string {
	return fmt.Sprintf("%s/api/download/%s", c.publicURL, id)
}

// Fetch streams a finished job's artifact. The caller must close the reader.
func (c *Client) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/api/download/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading artifact: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading artifact: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
