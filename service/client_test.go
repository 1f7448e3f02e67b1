package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest is what the fake backend saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeBackend is an httptest server answering with scripted handlers.
type fakeBackend struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{handlers: map[string]http.HandlerFunc{}}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		h := b.handlers[r.URL.Path]
		b.mu.Unlock()
		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

func (b *fakeBackend) json(path string, code int, body string) {
	b.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	})
}

func (b *fakeBackend) seen() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

func (b *fakeBackend) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(b.URL+"/", time.Second)
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient("ftp://camera.local", 0)
	assert.Error(t, err)
	_, err = NewClient("://bad", 0)
	assert.Error(t, err)

	c, err := NewClient("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, c.BaseURL())
}

func TestClientCacheBusting(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:5001/", 0)
	require.NoError(t, err)
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }

	assert.Equal(t, "http://127.0.0.1:5001/video_feed?cb=1700000000123", c.FeedURL())
}

func TestClientStartCamera(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathStartCamera, 200, `{"status":"started"}`)
	c := b.client(t)

	resp, err := c.StartCamera(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Started())

	reqs := b.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.True(t, strings.HasPrefix(reqs[0].Query, "cb="), "query %q", reqs[0].Query)
	_, err = strconv.ParseInt(strings.TrimPrefix(reqs[0].Query, "cb="), 10, 64)
	assert.NoError(t, err)
}

func TestClientStatusError(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathStartCamera, 500, `{"status":"error","msg":"camera busy"}`)
	c := b.client(t)

	resp, err := c.StartCamera(context.Background())
	require.Error(t, err)
	assert.False(t, resp.Started())
	assert.True(t, IsStatusError(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "camera busy", se.Message)
}

func TestClientDecodeError(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathCurrentStatus, 200, `{"camera": "started", "known_count": "many"`)
	b.json(PathCameraStatus, 200, ``)
	c := b.client(t)

	resp, err := c.CurrentStatus(context.Background())
	assert.True(t, IsDecodeError(err))
	assert.Equal(t, CurrentStatusResponse{}, resp, "a bad body decodes to the zero value")

	_, err = c.CameraStatus(context.Background())
	assert.True(t, IsDecodeError(err))
}

func TestClientTransportError(t *testing.T) {
	b := newFakeBackend(t)
	c := b.client(t)
	b.Close()

	_, err := c.CameraStatus(context.Background())
	assert.True(t, IsTransportError(err))
	assert.False(t, IsStatusError(err))
}

func TestClientStopCameraIgnoresBody(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathStopCamera, 200, `not json at all`)
	c := b.client(t)

	require.NoError(t, c.StopCamera(context.Background()))
	reqs := b.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
}

func TestClientRegisterFace(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathRegisterFace, 200, `{"ok":true,"name":"Alice","updated":true}`)
	c := b.client(t)

	resp, err := c.RegisterFace(context.Background(), "Alice")
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.True(t, resp.Updated)
	assert.Equal(t, "Alice", resp.Name)

	reqs := b.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	var body RegisterRequest
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	assert.Equal(t, "Alice", body.Name)
}

func TestClientOptionalEndpoints(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathPersonalityInfo, 200, `[{"trait":"openness","trait_korean":"개방성","value":0.8}]`)
	b.json(PathEmotionHistory, 200, `[{"emotion":"happy","emotion_korean":"행복","confidence":0.9,"timestamp":"2025-03-14T10:00:00Z"},{"emotion_korean":"슬픔","confidence":0.4,"timestamp":1741946400000}]`)
	c := b.client(t)

	traits, err := c.PersonalityInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, traits, 1)
	assert.Equal(t, "개방성", traits[0].Label())
	assert.Equal(t, 0.8, traits[0].Value)

	history, err := c.EmotionHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC), history[0].Timestamp.UTC())
	assert.Equal(t, time.UnixMilli(1741946400000).UTC(), history[1].Timestamp.UTC())
	assert.Equal(t, "슬픔", history[1].Label())
}

func TestClientNotFound(t *testing.T) {
	b := newFakeBackend(t)
	c := b.client(t)

	_, err := c.PersonalityInfo(context.Background())
	assert.True(t, IsNotFound(err))
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2025-03-14T10:00:00Z"`, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)},
		{"epoch seconds", `1741946400`, time.Unix(1741946400, 0)},
		{"epoch millis", `1741946400000`, time.UnixMilli(1741946400000)},
		{"null", `null`, time.Time{}},
		{"unknown layout", `"yesterday"`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v want %v", ts.Time, tt.want)
		})
	}
}
