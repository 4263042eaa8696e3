package filecache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

/* Client is thin glue over the file-cache service, which either points at a
 * previously uploaded copy of a book file or streams the file itself.
 */

// CachedMessage points at a chat message that already carries the file.
type CachedMessage struct {
	MessageID int64 `json:"message_id"`
	ChatID    int64 `json:"chat_id"`
}

// DownloadedFile is a book file streamed from the cache service.
// The caller must close Content.
type DownloadedFile struct {
	Filename string
	Caption  string
	Content  io.ReadCloser
}

// Client talks to the file-cache REST service.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient creates a file-cache client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		// File downloads can be slow; rely on context cancellation.
		httpc: &http.Client{},
	}
}

// GetCachedMessage looks up the cached copy of a book file. Returns nil
// without error when the cache has no copy.
func (c *Client) GetCachedMessage(ctx context.Context, bookID int64, format string, copyMode bool) (*CachedMessage, error) {
	url := fmt.Sprintf("%s/api/v1/%d/%s/?copy=%t", c.baseURL, bookID, format, copyMode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building cache lookup request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("looking up cached message: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("looking up cached message: unexpected status %d", resp.StatusCode)
	}

	var cached CachedMessage
	if err := json.NewDecoder(resp.Body).Decode(&cached); err != nil {
		return nil, fmt.Errorf("decoding cached message: %w", err)
	}
	return &cached, nil
}

// DownloadFile streams a book file directly from the cache service. Returns
// nil without error when the file is not available.
func (c *Client) DownloadFile(ctx context.Context, bookID int64, format string) (*DownloadedFile, error) {
	url := fmt.Sprintf("%s/api/v1/download/%d/%s/", c.baseURL, bookID, format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		resp.Body.Close()
		return nil, nil
	case http.StatusOK:
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("downloading file: unexpected status %d", resp.StatusCode)
	}

	return &DownloadedFile{
		Filename: filenameFromHeader(resp.Header.Get("Content-Disposition")),
		Caption:  resp.Header.Get("X-Caption"),
		Content:  resp.Body,
	}, nil
}

func filenameFromHeader(disposition string) string {
	if disposition == "" {
		return "book"
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "book"
	}
	if name, ok := params["filename"]; ok {
		return name
	}
	return "book"
}
