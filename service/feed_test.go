package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// mjpegServer streams frames as multipart/x-mixed-replace. When hold is
// true the response stays open after the last frame.
func mjpegServer(t *testing.T, frames [][]byte, hold bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			_, _ = w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))
			_, _ = w.Write(f)
			_, _ = w.Write([]byte("\r\n"))
			flusher.Flush()
		}
		if hold {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte("--frame--\r\n"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type errRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *errRecorder) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *errRecorder) list() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func TestFeedReaderCountsFramesAndReportsEnd(t *testing.T) {
	frame := testJPEG(t, 64, 48)
	srv := mjpegServer(t, [][]byte{frame, frame, frame}, false)
	snapshot := filepath.Join(t.TempDir(), "feed", "latest.jpg")

	reader := NewFeedReader(snapshot)
	t.Cleanup(reader.Detach)
	rec := &errRecorder{}
	reader.OnError(rec.record)
	reader.Attach(srv.URL + "/video_feed")

	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, rec.list()[0], ErrFeedEnded)

	stats := reader.Stats()
	assert.Equal(t, uint64(3), stats.Frames)
	assert.Equal(t, uint64(3*len(frame)), stats.Bytes)
	assert.Equal(t, 64, stats.Width)
	assert.Equal(t, 48, stats.Height)
	assert.False(t, stats.Connected)
	assert.Equal(t, uint64(1), stats.Errors)

	written, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Equal(t, frame, written)
}

func TestFeedReaderDetachIsSilent(t *testing.T) {
	srv := mjpegServer(t, [][]byte{testJPEG(t, 8, 8)}, true)

	reader := NewFeedReader("")
	t.Cleanup(reader.Detach)
	rec := &errRecorder{}
	reader.OnError(rec.record)
	reader.Attach(srv.URL)

	require.Eventually(t, reader.Connected, 2*time.Second, 5*time.Millisecond)
	assert.False(t, reader.ConnectedAt().IsZero())

	reader.Detach()
	assert.False(t, reader.Connected())
	assert.Empty(t, reader.Stats().Source)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.list(), "a connection dropped by Detach is not an error")
}

func TestFeedReaderReattachDropsOldConnection(t *testing.T) {
	first := mjpegServer(t, [][]byte{testJPEG(t, 8, 8)}, true)
	second := mjpegServer(t, [][]byte{testJPEG(t, 16, 16)}, true)

	reader := NewFeedReader("")
	t.Cleanup(reader.Detach)
	rec := &errRecorder{}
	reader.OnError(rec.record)

	reader.Attach(first.URL)
	require.Eventually(t, reader.Connected, 2*time.Second, 5*time.Millisecond)
	reader.Attach(second.URL)
	require.Eventually(t, func() bool { return reader.Stats().Width == 16 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, second.URL, reader.Stats().Source)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.list())
	reader.Detach()
}

func TestFeedReaderDeliversFrameBeforeNextBoundary(t *testing.T) {
	frame := testJPEG(t, 32, 24)
	srv := mjpegServer(t, [][]byte{frame}, true)

	reader := NewFeedReader("")
	t.Cleanup(reader.Detach)
	reader.Attach(srv.URL)

	require.Eventually(t, func() bool { return reader.Stats().Frames == 1 }, 2*time.Second, 5*time.Millisecond)
	stats := reader.Stats()
	assert.True(t, stats.Connected)
	assert.Equal(t, uint64(len(frame)), stats.Bytes)
	assert.Equal(t, 32, stats.Width)
}

func TestFeedReaderHonoursPartContentLength(t *testing.T) {
	payload := []byte("not a jpeg, no end marker")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		_, _ = fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(payload))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\r\n"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	reader := NewFeedReader("")
	t.Cleanup(reader.Detach)
	reader.Attach(srv.URL)

	require.Eventually(t, reader.Connected, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(len(payload)), reader.Stats().Bytes)
	assert.Zero(t, reader.Stats().Width)
}

func TestFeedReaderHTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "conflict",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "camera not started", http.StatusConflict)
			},
			check: IsStatusError,
		},
		{
			name: "not multipart",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{}`))
			},
			check: IsDecodeError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			reader := NewFeedReader("")
			defer reader.Detach()
			rec := &errRecorder{}
			reader.OnError(rec.record)
			reader.Attach(srv.URL)

			require.Eventually(t, func() bool { return len(rec.list()) == 1 }, 2*time.Second, 5*time.Millisecond)
			assert.True(t, tt.check(rec.list()[0]), "unexpected error %v", rec.list()[0])
		})
	}
}

func TestFeedStatsFPS(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := FeedStats{Frames: 50, LastFrameAt: start.Add(5 * time.Second)}
	assert.InDelta(t, 10.0, stats.FPS(start), 0.001)
	assert.Zero(t, FeedStats{}.FPS(start))
	assert.Zero(t, stats.FPS(time.Time{}))
}

func TestFeedErrorDrivesSession(t *testing.T) {
	srv := mjpegServer(t, [][]byte{testJPEG(t, 8, 8)}, false)
	cam := newFakeCamera()
	sched := &fakeScheduler{}
	reader := NewFeedReader("")
	t.Cleanup(reader.Detach)

	// The session attaches to whatever the camera says the feed is.
	api := &feedURLCamera{fakeCamera: cam, url: srv.URL}
	session := NewStreamSession(api, reader, nil, sched, DefaultSessionConfig())
	reader.OnError(session.StreamError)

	require.NoError(t, session.Start(t.Context()))
	require.Eventually(t, func() bool { return session.State() == StreamReconnecting }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, sched.pendingTimers(), 1)
	require.NoError(t, session.Stop(t.Context()))
}

type feedURLCamera struct {
	*fakeCamera
	url string
}

func (c *feedURLCamera) FeedURL() string { return c.url }
