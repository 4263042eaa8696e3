package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

/* Client is thin glue over the book catalog service. Only the calls the
 * download module needs are implemented here.
 */

// Book is the catalog's description of one book.
type Book struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Lang           string   `json:"lang"`
	AvailableTypes []string `json:"available_types"`
}

// Client talks to the catalog REST service.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient creates a catalog client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling catalog %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding catalog response: %w", err)
	}
	return nil
}

// GetBook fetches one book by id.
func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	var book Book
	if err := c.get(ctx, fmt.Sprintf("/api/v1/books/%d", id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// AvailableTypes lists the file formats an archive can be built in for a
// books collection (author, sequence or translator).
func (c *Client) AvailableTypes(ctx context.Context, kind string, id int64, allowedLangs []string) ([]string, error) {
	query := url.Values{"allowed_langs": []string{strings.Join(allowedLangs, ",")}}
	var types []string
	path := fmt.Sprintf("/api/v1/%ss/%d/available_types", kind, id)
	if err := c.get(ctx, path, query, &types); err != nil {
		return nil, err
	}
	return types, nil
}
