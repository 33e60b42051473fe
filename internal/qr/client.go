// Package qr fetches QR code images from an external render service,
// used for the scannable block on student ID cards.
package qr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps interactions with the QR render API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Generate returns a PNG encoding data at the requested pixel size.
func (c *Client) Generate(ctx context.Context, data string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	endpoint := fmt.Sprintf("%s/v1/create-qr-code/?size=%dx%d&data=%s",
		c.baseURL, size, size, url.QueryEscape(data))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("qr render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
