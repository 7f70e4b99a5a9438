// Package yadisk downloads files shared by public Yandex Disk links.
package yadisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/docsync/internal/domain"
)

// DefaultBaseURL is the public Yandex Disk REST API.
const DefaultBaseURL = "https://cloud-api.yandex.net"

const resolvePath = "/v1/disk/public/resources/download"

// Client resolves public links to direct download URLs and streams files.
type Client struct {
	baseURL  string
	http     *http.Client
	maxBytes int64
}

// New creates a client. timeout bounds the whole download.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithMaxBytes caps the downloaded size. Zero means no cap.
func (c *Client) WithMaxBytes(n int64) *Client {
	c.maxBytes = n
	return c
}

type downloadLink struct {
	Href string `json:"href"`
}

// Resolve exchanges a public link for a one-time download URL.
func (c *Client) Resolve(ctx context.Context, link string) (string, error) {
	u := c.baseURL + resolvePath + "?" + url.Values{"public_key": {link}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: resolve link: %w", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, "resolve link"); err != nil {
		return "", err
	}

	var dl downloadLink
	if err := json.NewDecoder(resp.Body).Decode(&dl); err != nil {
		return "", fmt.Errorf("%w: parse resolve response: %w", domain.ErrUpstream, err)
	}
	if dl.Href == "" {
		return "", fmt.Errorf("%w: resolve response has no href", domain.ErrUpstream)
	}
	return dl.Href, nil
}

// Download resolves link and copies the file into w.
func (c *Client) Download(ctx context.Context, link string, w io.Writer) (int64, error) {
	href, err := c.Resolve(ctx, link)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: download: %w", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp, "download"); err != nil {
		return 0, err
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("%w: download: %w", domain.ErrUpstream, err)
	}
	if c.maxBytes > 0 && n > c.maxBytes {
		return n, domain.NewValidation("diskLink", fmt.Sprintf("file exceeds %d bytes", c.maxBytes))
	}
	return n, nil
}

// checkStatus maps 4xx to a bad link and everything else non-2xx to an
// upstream failure.
func checkStatus(resp *http.Response, what string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(string(body))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return domain.NewValidation("diskLink", fmt.Sprintf("%s: status %d: %s", what, resp.StatusCode, msg))
	}
	return fmt.Errorf("%w: %s: status %d: %s", domain.ErrUpstream, what, resp.StatusCode, msg)
}
