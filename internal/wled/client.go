package wled

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout bounds each device request. LAN devices answer in tens of
// milliseconds; anything slower is effectively unreachable.
const defaultTimeout = 5 * time.Second

// Client talks to one device over its JSON HTTP API.
//
// Thread Safety:
//   - All methods are safe for concurrent use; callers serialise pushes to
//     the same device at a higher level to keep segment updates ordered.
type Client struct {
	host       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for a device host (hostname, host:port or IP).
func NewClient(host string) *Client {
	base := host
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		host:       host,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Host returns the host this client was created for.
func (c *Client) Host() string {
	return c.host
}

// Push applies a partial state update to the device.
func (c *Client) Push(ctx context.Context, state State) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/json/state", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnreachable, c.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrBadResponse, c.host, resp.StatusCode)
	}
	return nil
}

// Pull reads the device's current state.
func (c *Client) Pull(ctx context.Context) (*State, error) {
	var state State
	if err := c.getJSON(ctx, "/json/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Info reads device identity and LED count.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.getJSON(ctx, "/json/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Off powers the device down with the given transition.
// Transition is in milliseconds and converted to device units.
func (c *Client) Off(ctx context.Context, transitionMS int) error {
	return c.Push(ctx, State{
		On:         Bool(false),
		Transition: Int(transitionMS / 100),
	})
}

// ApplyPreset recalls a stored preset on the device.
func (c *Client) ApplyPreset(ctx context.Context, presetID int) error {
	return c.Push(ctx, State{PresetID: presetID})
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnreachable, c.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrBadResponse, c.host, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrBadResponse, path, err)
	}
	return nil
}
