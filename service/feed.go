package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxFrameSize = 8 << 20

// ErrFeedEnded is raised when the backend closes the feed on its own.
var ErrFeedEnded = errors.New("video feed ended")

// FeedStats describes the feed connection as seen by the reader.
type FeedStats struct {
	Source      string
	Connected   bool
	Frames      uint64
	Bytes       uint64
	Errors      uint64
	Width       int
	Height      int
	LastFrameAt time.Time
}

// FPS estimates the frame rate from the frames seen since connectedAt.
func (s FeedStats) FPS(connectedAt time.Time) float64 {
	if s.Frames == 0 || connectedAt.IsZero() || !s.LastFrameAt.After(connectedAt) {
		return 0
	}
	return float64(s.Frames) / s.LastFrameAt.Sub(connectedAt).Seconds()
}

// FeedReader consumes the multipart/x-mixed-replace MJPEG feed. It is the
// FeedSink the StreamSession writes; a failure of the live connection is
// reported through the error handler, never for connections dropped by
// Attach or Detach.
type FeedReader struct {
	mu           sync.Mutex
	client       *http.Client
	onError      func(error)
	snapshotPath string
	cancel       context.CancelFunc
	gen          uint64
	stats        FeedStats
	connectedAt  time.Time
}

// NewFeedReader creates a reader. When snapshotPath is set, the latest
// frame is written there as a JPEG.
func NewFeedReader(snapshotPath string) *FeedReader {
	return &FeedReader{
		// No overall timeout: the feed is an endless response.
		client:       &http.Client{},
		snapshotPath: snapshotPath,
	}
}

// OnError sets the handler for feed failures.
func (r *FeedReader) OnError(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

// Attach drops any current connection and connects to url in the background.
func (r *FeedReader) Attach(url string) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.stats.Source = url
	r.stats.Connected = false
	r.mu.Unlock()

	go r.run(ctx, gen, url)
}

// Detach drops the current connection. It does not wait for the reader
// goroutine to exit.
func (r *FeedReader) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.stats.Source = ""
	r.stats.Connected = false
}

// Connected reports whether the current connection has delivered a frame
// and not failed since.
func (r *FeedReader) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Connected
}

func (r *FeedReader) Stats() FeedStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// ConnectedAt returns when the current connection delivered its first frame.
func (r *FeedReader) ConnectedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedAt
}

func (r *FeedReader) run(ctx context.Context, gen uint64, url string) {
	err := r.consume(ctx, gen, url)
	if ctx.Err() != nil {
		return
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = ErrFeedEnded
	}
	r.fail(gen, err)
}

func (r *FeedReader) consume(ctx context.Context, gen uint64, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		return &TransportError{Endpoint: PathVideoFeed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: PathVideoFeed, Code: resp.StatusCode}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return &DecodeError{Endpoint: PathVideoFeed, Err: fmt.Errorf("not a multipart stream: %q", resp.Header.Get("Content-Type"))}
	}

	mr := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return err
		}
		data, err := readFrame(part)
		part.Close()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		r.frame(gen, data)
	}
}

// readFrame returns a frame as soon as it is complete instead of waiting
// for the next boundary: it reads Content-Length bytes when the part
// declares them, otherwise up to the JPEG end-of-image marker.
func readFrame(part *multipart.Part) ([]byte, error) {
	if n, err := strconv.Atoi(part.Header.Get("Content-Length")); err == nil && n > 0 && n <= maxFrameSize {
		buf := make([]byte, n)
		if _, err := io.ReadFull(part, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	br := bufio.NewReader(io.LimitReader(part, maxFrameSize))
	var buf bytes.Buffer
	var prev byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf.Bytes(), nil
			}
			return nil, err
		}
		buf.WriteByte(b)
		if prev == 0xFF && b == 0xD9 {
			return buf.Bytes(), nil
		}
		prev = b
	}
}

func (r *FeedReader) frame(gen uint64, data []byte) {
	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	now := time.Now()
	if !r.stats.Connected {
		r.connectedAt = now
		Debugf("feed connected: %s", r.stats.Source)
	}
	r.stats.Connected = true
	r.stats.Frames++
	r.stats.Bytes += uint64(len(data))
	r.stats.LastFrameAt = now
	if width > 0 {
		r.stats.Width, r.stats.Height = width, height
	}
	path := r.snapshotPath
	r.mu.Unlock()

	if path != "" {
		if err := writeSnapshot(path, data); err != nil {
			Debugf("failed to write feed snapshot: %v", err)
		}
	}
}

func (r *FeedReader) fail(gen uint64, err error) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.stats.Connected = false
	r.stats.Errors++
	fn := r.onError
	r.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}

// writeSnapshot replaces path atomically so viewers never see half a frame.
func writeSnapshot(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
