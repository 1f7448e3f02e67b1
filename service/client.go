package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	PathStartCamera     = "/api/start_camera"
	PathStopCamera      = "/api/stop_camera"
	PathCameraStatus    = "/api/camera_status"
	PathVideoFeed       = "/video_feed"
	PathCurrentStatus   = "/api/current_status"
	PathPersonalityInfo = "/api/personality_info"
	PathEmotionHistory  = "/api/emotion_history"
	PathRegisterFace    = "/api/register_face"
	PathChat            = "/api/chat"

	DefaultServerURL      = "http://127.0.0.1:5001"
	DefaultRequestTimeout = 10 * time.Second

	cacheBustParam = "cb"
)

// Client talks to the lulubot backend. Every request carries a cache-busting
// cb=<unix ms> query parameter, and every JSON body is decoded best-effort:
// on a DecodeError the returned value is the zero value of the response type.
type Client struct {
	base *url.URL
	http *http.Client
	now  func() time.Time
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultServerURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpoint resolves path against the base URL and appends the cache buster.
func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	q := u.Query()
	q.Set(cacheBustParam, strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// FeedURL returns a freshly cache-busted URL of the MJPEG feed, so the
// consumer never reuses a stale connection.
func (c *Client) FeedURL() string {
	return c.endpoint(PathVideoFeed)
}

func (c *Client) StartCamera(ctx context.Context) (CameraResponse, error) {
	var resp CameraResponse
	err := c.do(ctx, http.MethodGet, PathStartCamera, nil, &resp)
	return resp, err
}

// StopCamera asks the backend to stop producing frames. The body is ignored.
func (c *Client) StopCamera(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathStopCamera, nil, nil)
}

func (c *Client) CameraStatus(ctx context.Context) (CameraResponse, error) {
	var resp CameraResponse
	err := c.do(ctx, http.MethodGet, PathCameraStatus, nil, &resp)
	return resp, err
}

func (c *Client) CurrentStatus(ctx context.Context) (CurrentStatusResponse, error) {
	var resp CurrentStatusResponse
	err := c.do(ctx, http.MethodGet, PathCurrentStatus, nil, &resp)
	return resp, err
}

func (c *Client) PersonalityInfo(ctx context.Context) ([]PersonalityTrait, error) {
	var traits []PersonalityTrait
	if err := c.do(ctx, http.MethodGet, PathPersonalityInfo, nil, &traits); err != nil {
		return nil, err
	}
	return traits, nil
}

func (c *Client) EmotionHistory(ctx context.Context) ([]EmotionHistoryEntry, error) {
	var history []EmotionHistoryEntry
	if err := c.do(ctx, http.MethodGet, PathEmotionHistory, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *Client) RegisterFace(ctx context.Context, name string) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.do(ctx, http.MethodPost, PathRegisterFace, RegisterRequest{Name: name}, &resp)
	return resp, err
}

func (c *Client) Chat(ctx context.Context, message string) (ChatResponse, error) {
	var resp ChatResponse
	err := c.do(ctx, http.MethodPost, PathChat, ChatRequest{Message: message}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	Debugf("%s %s", method, req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &StatusError{Endpoint: path, Code: resp.StatusCode, Message: eb.text()}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &DecodeError{Endpoint: path, Err: io.ErrUnexpectedEOF}
	}
	if err := json.Unmarshal(data, out); err != nil {
		resetValue(out)
		return &DecodeError{Endpoint: path, Err: err}
	}
	return nil
}

// resetValue restores the zero value after a partial json.Unmarshal.
func resetValue(out interface{}) {
	switch v := out.(type) {
	case *CameraResponse:
		*v = CameraResponse{}
	case *CurrentStatusResponse:
		*v = CurrentStatusResponse{}
	case *RegisterResponse:
		*v = RegisterResponse{}
	case *ChatResponse:
		*v = ChatResponse{}
	case *[]PersonalityTrait:
		*v = nil
	case *[]EmotionHistoryEntry:
		*v = nil
	}
}
