package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultEndpoint            = "https://api.linkpreview.net"
	DefaultScreenshotEndpoint  = "https://api.screenshotmachine.com/"
	DefaultScreenshotDimension = "1024x768"
	DefaultScreenshotDelay     = 200
	DefaultTimeout             = 30 * time.Second

	maxErrorBody = 512
)

var (
	ErrNoAPIKey        = errors.New("preview API key not set")
	ErrAPIRequest      = errors.New("preview request failed")
	ErrInvalidResponse = errors.New("invalid preview response")
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	APIKey              string
	Endpoint            string
	ScreenshotKey       string
	ScreenshotEndpoint  string
	ScreenshotDimension string
	ScreenshotDelay     int
	Timeout             time.Duration
	HTTPClient          *http.Client
	Logger              zerolog.Logger
}

// Client fetches link previews and builds screenshot fallback URLs.
type Client struct {
	apiKey     string
	endpoint   string
	screenshot screenshotConfig
	httpClient *http.Client
	log        zerolog.Logger
}

type screenshotConfig struct {
	key       string
	endpoint  string
	dimension string
	delay     int
}

// NewClient creates a preview client.
// Returns ErrNoAPIKey if no preview API key is configured.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		screenshot: screenshotConfig{
			key:       opts.ScreenshotKey,
			endpoint:  opts.ScreenshotEndpoint,
			dimension: opts.ScreenshotDimension,
			delay:     opts.ScreenshotDelay,
		},
		httpClient: opts.HTTPClient,
		log:        opts.Logger.With().Str("component", "preview").Logger(),
	}

	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.screenshot.endpoint == "" {
		c.screenshot.endpoint = DefaultScreenshotEndpoint
	}
	if c.screenshot.dimension == "" {
		c.screenshot.dimension = DefaultScreenshotDimension
	}
	if c.screenshot.delay <= 0 {
		c.screenshot.delay = DefaultScreenshotDelay
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}

	return c, nil
}

// Fetch requests preview metadata for target with a single POST.
// There is no retry.
func (c *Client) Fetch(ctx context.Context, target string) (*Result, error) {
	jsonData, err := json.Marshal(apiRequest{Key: c.apiKey, Q: target})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", target).Msg("fetching preview")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIRequest, resp.StatusCode, truncate(body, maxErrorBody))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if apiResp.Error != 0 {
		return nil, fmt.Errorf("%w: error %d: %s", ErrInvalidResponse, apiResp.Error, apiResp.Description)
	}
	if apiResp.Title == "" && apiResp.URL == "" {
		return nil, fmt.Errorf("%w: missing title and url", ErrInvalidResponse)
	}

	return &Result{
		Title:       apiResp.Title,
		Description: apiResp.Description,
		Image:       apiResp.Image,
		URL:         apiResp.URL,
	}, nil
}

// ScreenshotURL returns the screenshot service URL rendering target.
func (c *Client) ScreenshotURL(target string) string {
	return fmt.Sprintf("%s?key=%s&url=%s&dimension=%s&delay=%d",
		c.screenshot.endpoint,
		url.QueryEscape(c.screenshot.key),
		url.QueryEscape(target),
		c.screenshot.dimension,
		c.screenshot.delay,
	)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
