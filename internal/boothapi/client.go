// Package boothapi is a client for the booth backend: template gallery,
// face/head swap, template upload/delete and device login.
package boothapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNoToken is returned by calls that need an auth token when none is set.
var ErrNoToken = errors.New("no authentication token found, please register or log in")

// Client represents a client for the booth API
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	captureDir string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the auth token sent with swap requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCaptureDir saves every JSON response body to dir (for building test fixtures).
func WithCaptureDir(dir string) Option {
	return func(c *Client) { c.captureDir = dir }
}

// New creates a new booth API client for the server at rawURL.
func New(rawURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid booth API URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid booth API URL %q: scheme and host are required", rawURL)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.captureDir != "" {
		if err := os.MkdirAll(c.captureDir, 0750); err != nil {
			return nil, fmt.Errorf("could not create capture directory: %w", err)
		}
	}
	return c, nil
}

// Token returns the current auth token.
func (c *Client) Token() string {
	return c.token
}

// SetToken replaces the auth token, e.g. after an auto-login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolveURL builds a full URL from the base URL and an endpoint path.
// A query string in the endpoint (e.g. "api/headswap-qr?mode=portrait") is
// kept, and so is a trailing slash.
func (c *Client) resolveURL(endpoint string) string {
	pathPart, query, hasQuery := strings.Cut(endpoint, "?")
	result := c.baseURL.JoinPath(pathPart)
	if strings.HasSuffix(pathPart, "/") && !strings.HasSuffix(result.Path, "/") {
		result.Path += "/"
	}
	if hasQuery {
		result.RawQuery = query
	}
	return result.String()
}

// absoluteURL resolves an image reference against the base URL, so that
// relative references returned by the gallery can be fetched.
func (c *Client) absoluteURL(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image URL: %w", err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	return c.baseURL.ResolveReference(parsed).String(), nil
}

// errorDetail extracts the human readable message of an error response.
// The backend answers {"detail": "..."}, or a list of validation errors
// {"detail": [{"msg": "..."}]}; anything else is returned as plain text.
func errorDetail(body []byte) string {
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists():
		return strings.TrimSpace(string(body))
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			if msg := item.Get("msg"); msg.Exists() {
				msgs = append(msgs, msg.String())
			} else {
				msgs = append(msgs, item.String())
			}
		}
		return strings.Join(msgs, "; ")
	default:
		return detail.String()
	}
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	pathPart, _, _ := strings.Cut(endpoint, "?")
	filename := strings.Trim(strings.ReplaceAll(pathPart, "/", "_"), "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}
