package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const DefaultHealthInterval = 5 * time.Second

// ErrStartCancelled is returned by Start when Stop ran while the start
// request was still in flight.
var ErrStartCancelled = errors.New("camera start cancelled by stop")

// CameraAPI is the part of the backend StreamSession depends on.
type CameraAPI interface {
	StartCamera(ctx context.Context) (CameraResponse, error)
	StopCamera(ctx context.Context) error
	CameraStatus(ctx context.Context) (CameraResponse, error)
	FeedURL() string
}

type SessionConfig struct {
	HealthInterval time.Duration
	RequestTimeout time.Duration
	Backoff        BackoffConfig
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HealthInterval: DefaultHealthInterval,
		RequestTimeout: DefaultRequestTimeout,
		Backoff:        DefaultBackoffConfig(),
	}
}

// StreamSession owns the lifecycle of the live feed: start, stop, periodic
// health checks and reconnect with bounded exponential backoff.
//
// All state lives behind mu and network calls are made with mu released.
// epoch is bumped by every Start and Stop; an async completion that carries
// an older epoch is dropped, so a stale timer or a late response can never
// resurrect a stopped session.
type StreamSession struct {
	mu      sync.Mutex
	api     CameraAPI
	sink    FeedSink
	display *StatusDisplay
	sched   Scheduler
	cfg     SessionConfig

	state     StreamState
	backoff   *Backoff
	epoch     uint64
	reconnect TaskSlot
	health    TaskSlot
	source    string
	attempts  int
}

func NewStreamSession(api CameraAPI, sink FeedSink, display *StatusDisplay, sched Scheduler, cfg SessionConfig) *StreamSession {
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = DefaultHealthInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if sched == nil {
		sched = NewRealScheduler()
	}
	if display == nil {
		display = NewStatusDisplay()
	}
	return &StreamSession{
		api:     api,
		sink:    sink,
		display: display,
		sched:   sched,
		cfg:     cfg,
		state:   StreamStopped,
		backoff: NewBackoff(cfg.Backoff),
	}
}

// Start asks the backend to start the camera and, on success, attaches the
// feed and begins health checks. Only one start may be in flight: calls made
// in any state other than Stopped or Error return ErrSessionBusy.
func (s *StreamSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StreamStopped && s.state != StreamError {
		state := s.state
		s.mu.Unlock()
		Debugf("start ignored, session is %s", state)
		return ErrSessionBusy
	}
	s.epoch++
	epoch := s.epoch
	s.setStateLocked(StreamStarting)
	s.mu.Unlock()

	s.display.ShowLoading("Starting camera...")
	defer s.display.HideLoading()

	resp, err := s.api.StartCamera(ctx)
	if err == nil && !resp.Started() {
		err = fmt.Errorf("%w: backend reported %q %s", ErrCameraNotStarted, resp.Status, resp.Msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		Debugf("start response dropped, session was stopped meanwhile")
		return ErrStartCancelled
	}
	if err != nil {
		Errorf("Failed to start camera: %v", err)
		s.setStateLocked(StreamError)
		s.display.SetStatus(IndicatorError, "Failed to start camera")
		return err
	}

	s.backoff.Reset()
	s.attempts = 0
	s.attachLocked()
	s.startHealthLocked(epoch)
	s.setStateLocked(StreamActive)
	s.display.SetStatus(IndicatorActive, "Camera running")
	return nil
}

// Stop cancels every pending timer, clears the feed and then tells the
// backend to stop. The backend notification is best-effort: its error is
// returned for reporting but the session is Stopped regardless.
func (s *StreamSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.reconnect.Cancel()
	s.health.Cancel()
	s.epoch++
	s.source = ""
	s.attempts = 0
	if s.sink != nil {
		s.sink.Detach()
	}
	s.setStateLocked(StreamStopped)
	s.display.SetStatus(IndicatorIdle, "Camera stopped")
	s.mu.Unlock()

	s.display.ShowLoading("Stopping camera...")
	defer s.display.HideLoading()
	if err := s.api.StopCamera(ctx); err != nil {
		Debugf("stop notification failed (ignored): %v", err)
		return err
	}
	return nil
}

// StreamError is the feed sink's error signal. It only matters while the
// session is Active; during a reconnect the pending attempt already covers it.
func (s *StreamSession) StreamError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StreamActive {
		Debugf("stream error while %s ignored: %v", s.state, err)
		return
	}
	Warnf("Stream error: %v", err)
	s.enterReconnectingLocked("Stream error, reconnecting...")
}

func (s *StreamSession) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StreamSession) Controls() Controls {
	return ControlsFor(s.State())
}

// Backoff returns the delay the next reconnect attempt will wait.
func (s *StreamSession) Backoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backoff.Current()
}

// Source returns the feed URL the sink is attached to, or "" when detached.
func (s *StreamSession) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Attempts returns the reconnect attempts made since the feed was last healthy.
func (s *StreamSession) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *StreamSession) setStateLocked(next StreamState) {
	if s.state == next {
		return
	}
	Debugf("stream: %s -> %s", s.state, next)
	s.state = next
}

func (s *StreamSession) attachLocked() {
	s.source = s.api.FeedURL()
	if s.sink != nil {
		s.sink.Attach(s.source)
	}
}

func (s *StreamSession) enterReconnectingLocked(text string) {
	s.setStateLocked(StreamReconnecting)
	s.display.SetStatus(IndicatorError, text)
	s.scheduleReconnectLocked()
}

func (s *StreamSession) scheduleReconnectLocked() {
	epoch := s.epoch
	delay := s.backoff.Current()
	Debugf("reconnect scheduled in %s", delay)
	s.reconnect.Set(s.sched.After(delay, func() { s.onReconnect(epoch) }))
}

func (s *StreamSession) onReconnect(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.state != StreamReconnecting {
		return
	}
	s.reconnect.Clear()
	s.attempts++
	s.attachLocked()
	next := s.backoff.Grow()
	Infof("Reconnect attempt %d, next attempt in %s", s.attempts, next)
	s.scheduleReconnectLocked()
	if !s.health.Pending() {
		s.startHealthLocked(epoch)
	}
}

func (s *StreamSession) startHealthLocked(epoch uint64) {
	s.health.Set(s.sched.Every(s.cfg.HealthInterval, func() { s.checkHealth(epoch) }))
}

func (s *StreamSession) checkHealth(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || !s.state.Streaming() {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	resp, err := s.api.CameraStatus(ctx)
	cancel()
	if err == nil && !resp.Started() {
		err = fmt.Errorf("%w: backend reported %q", ErrCameraNotStarted, resp.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || !s.state.Streaming() {
		return
	}
	if err != nil {
		s.healthFailedLocked(err)
		return
	}
	s.healthOKLocked()
}

func (s *StreamSession) healthFailedLocked(err error) {
	switch s.state {
	case StreamActive:
		Warnf("Health check failed: %v", err)
		s.enterReconnectingLocked("Camera lost, reconnecting...")
	case StreamReconnecting:
		Debugf("health check still failing: %v", err)
		if !s.reconnect.Pending() {
			s.scheduleReconnectLocked()
		}
	}
}

// connectedSink is implemented by sinks that know whether their connection
// is still alive.
type connectedSink interface {
	Connected() bool
}

func (s *StreamSession) healthOKLocked() {
	if s.state != StreamReconnecting {
		return
	}
	s.reconnect.Cancel()
	s.backoff.Reset()
	Infof("Stream recovered after %d attempt(s)", s.attempts)
	s.attempts = 0
	if cs, ok := s.sink.(connectedSink); ok && !cs.Connected() {
		s.attachLocked()
	}
	s.setStateLocked(StreamActive)
	s.display.SetStatus(IndicatorActive, "Camera running")
}
