package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/techposts/ambisense-bridge/internal/logging"
)

const (
	// DefaultPort is the default HTTP port for AmbiSense devices
	DefaultPort = 80

	// DefaultTimeout is the per-request timeout. The device firmware is
	// slow and single-threaded, so each call gets its own generous budget.
	DefaultTimeout = 5 * time.Second
)

// Client is an HTTP client for a single AmbiSense device.
//
// The client issues plain GET requests against the device's three endpoint
// families (/distance, /settings, /set and the specialized /set* paths) and
// maps failures into the DeviceError taxonomy. It never retries: retry
// policy belongs to the poll scheduler, which runs on a fixed interval.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.4.24")
	BaseURL string

	// Host is the device host, kept for error context
	Host string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client
}

// NewClient creates a new device client.
// host: device hostname or IP address (e.g., "ambisense-living.local")
// port: device HTTP port (typically 80)
func NewClient(host string, port int) *Client {
	return &Client{
		BaseURL:    fmt.Sprintf("http://%s:%d", host, port),
		Host:       host,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// NewClientWithURL creates a new client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	return &Client{
		BaseURL:    baseURL,
		Host:       host,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// FetchDistance retrieves the current distance reading in centimeters.
//
// The device returns the reading as plain integer text; leading and
// trailing whitespace is tolerated. A non-numeric body is a parse error,
// not a zero reading.
func (c *Client) FetchDistance(ctx context.Context) (int, error) {
	body, err := c.get(ctx, "/distance")
	if err != nil {
		return 0, err
	}

	text := strings.TrimSpace(string(body))
	distance, err := strconv.Atoi(text)
	if err != nil {
		return 0, NewParseError(fmt.Sprintf("invalid distance value %q", text), err)
	}

	return distance, nil
}

// FetchSettings retrieves the device settings as a raw wire-key map.
//
// Malformed JSON is reported as a parse error, never as an empty map: an
// empty map would be indistinguishable from "device reports no settings"
// and would wipe the merged snapshot.
func (c *Client) FetchSettings(ctx context.Context) (map[string]any, error) {
	body, err := c.get(ctx, "/settings")
	if err != nil {
		return nil, err
	}

	// Some firmware revisions append trailing garbage after the JSON
	// object; extract the first complete object before unmarshaling.
	cleaned, err := ExtractJSONObject(body)
	if err != nil {
		return nil, NewParseError("settings response contains no JSON object", err)
	}

	var settings map[string]any
	if err := json.Unmarshal(cleaned, &settings); err != nil {
		return nil, NewParseError("failed to parse settings JSON", err)
	}

	return settings, nil
}

// SendCommand issues a GET request against a write endpoint with the given
// query parameters and returns the HTTP status and response body.
//
// A 200 status means the device accepted the request, not that every key
// was recognized; the caller should refresh the snapshot afterwards to
// observe the device's actual resulting state.
func (c *Client) SendCommand(ctx context.Context, path string, query map[string]string) (int, string, error) {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}

	target := c.BaseURL + path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", NewNetworkError("failed to create request", err, c.Host)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.LogDeviceRequest(target, time.Since(start), 0, err)
		return 0, "", NewNetworkError("command request failed", err, c.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", NewNetworkError("failed to read response body", err, c.Host)
	}

	logging.LogDeviceRequest(target, time.Since(start), resp.StatusCode, nil)

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, string(body),
			NewHTTPError(resp.StatusCode, fmt.Sprintf("command %s rejected with status %d", path, resp.StatusCode))
	}

	return resp.StatusCode, string(body), nil
}

// get performs a single GET request and returns the body on HTTP 200
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	target := c.BaseURL + path
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err, c.Host)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.LogDeviceRequest(target, time.Since(start), 0, err)
		return nil, NewNetworkError("request failed", err, c.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogDeviceRequest(target, time.Since(start), resp.StatusCode, nil)

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("%s returned status %d", path, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err, c.Host)
	}

	return body, nil
}

// ExtractJSONObject extracts the first complete JSON object from raw data.
//
// Device firmware has been observed emitting valid JSON followed by stray
// bytes. This finds the object by tracking brace depth, honoring string
// boundaries and escapes, and truncates anything after the closing brace.
func ExtractJSONObject(data []byte) ([]byte, error) {
	start := -1
	for i, b := range data {
		if b == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(data); i++ {
		b := data[i]

		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}

		// Braces inside strings don't count
		if b == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if b == '{' {
				depth++
			} else if b == '}' {
				depth--
				if depth == 0 {
					return data[start : i+1], nil
				}
			}
		}
	}

	return nil, fmt.Errorf("unclosed JSON object in response")
}
