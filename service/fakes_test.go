package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeScheduler records tasks and fires them only when told to.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

type fakeTask struct {
	s         *fakeScheduler
	delay     time.Duration
	every     bool
	f         func()
	cancelled bool
	fired     bool
}

func (t *fakeTask) Cancel() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.cancelled = true
}

func (s *fakeScheduler) add(d time.Duration, every bool, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{s: s, delay: d, every: every, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) After(d time.Duration, f func()) Task { return s.add(d, false, f) }
func (s *fakeScheduler) Every(d time.Duration, f func()) Task { return s.add(d, true, f) }

// pendingTimers returns the live one-shot tasks.
func (s *fakeScheduler) pendingTimers() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, t := range s.tasks {
		if !t.every && !t.cancelled && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// pendingTickers returns the live repeating tasks.
func (s *fakeScheduler) pendingTickers() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, t := range s.tasks {
		if t.every && !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

// fireTimers runs every live one-shot task once and returns how many ran.
func (s *fakeScheduler) fireTimers() int {
	timers := s.pendingTimers()
	s.mu.Lock()
	for _, t := range timers {
		t.fired = true
	}
	s.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
	return len(timers)
}

// tick runs every live repeating task once.
func (s *fakeScheduler) tick() int {
	tickers := s.pendingTickers()
	for _, t := range tickers {
		t.f()
	}
	return len(tickers)
}

// all returns every task ever scheduled, including cancelled ones.
func (s *fakeScheduler) all() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTask(nil), s.tasks...)
}

// fakeCamera is a scripted CameraAPI.
type fakeCamera struct {
	mu          sync.Mutex
	startResp   CameraResponse
	startErr    error
	startGate   chan struct{}
	statusResp  CameraResponse
	statusErr   error
	stopErr     error
	startCalls  int
	stopCalls   int
	statusCalls int
	feeds       int
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{
		startResp:  CameraResponse{Status: CameraStarted},
		statusResp: CameraResponse{Status: CameraStarted},
	}
}

func (c *fakeCamera) StartCamera(ctx context.Context) (CameraResponse, error) {
	c.mu.Lock()
	c.startCalls++
	gate := c.startGate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startResp, c.startErr
}

func (c *fakeCamera) StopCamera(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCalls++
	return c.stopErr
}

func (c *fakeCamera) CameraStatus(ctx context.Context) (CameraResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++
	return c.statusResp, c.statusErr
}

func (c *fakeCamera) FeedURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds++
	return fmt.Sprintf("http://lulubot.test/video_feed?cb=%d", c.feeds)
}

func (c *fakeCamera) setStatus(resp CameraResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusResp, c.statusErr = resp, err
}

func (c *fakeCamera) calls() (start, stop, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startCalls, c.stopCalls, c.statusCalls
}

// fakeSink records what the session does to the feed.
type fakeSink struct {
	mu        sync.Mutex
	source    string
	attaches  []string
	detaches  int
	connected bool
}

func (s *fakeSink) Attach(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = url
	s.attaches = append(s.attaches, url)
	s.connected = true
}

func (s *fakeSink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ""
	s.detaches++
	s.connected = false
}

func (s *fakeSink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSink) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = v
}

func (s *fakeSink) snapshot() (string, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source, len(s.attaches), s.detaches
}
