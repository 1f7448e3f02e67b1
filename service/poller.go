package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultPollInterval = 1000 * time.Millisecond

// StatusAPI is the part of the backend StatusPoller depends on.
type StatusAPI interface {
	CurrentStatus(ctx context.Context) (CurrentStatusResponse, error)
	PersonalityInfo(ctx context.Context) ([]PersonalityTrait, error)
	EmotionHistory(ctx context.Context) ([]EmotionHistoryEntry, error)
}

// StatusSnapshot is the latest polled server status. It is replaced
// wholesale on every successful poll; nothing is merged across polls.
type StatusSnapshot struct {
	Camera       bool                  `json:"camera" yaml:"camera"`
	KnownCount   int                   `json:"known_count" yaml:"known_count"`
	User         string                `json:"user,omitempty" yaml:"user,omitempty"`
	Emotion      string                `json:"emotion,omitempty" yaml:"emotion,omitempty"`
	EmotionLabel string                `json:"emotion_label,omitempty" yaml:"emotion_label,omitempty"`
	Confidence   float64               `json:"confidence" yaml:"confidence"`
	EmotionImage string                `json:"emotion_image,omitempty" yaml:"emotion_image,omitempty"`
	Behavior     string                `json:"behavior,omitempty" yaml:"behavior,omitempty"`
	Personality  []PersonalityTrait    `json:"personality" yaml:"personality"`
	History      []EmotionHistoryEntry `json:"history" yaml:"history"`
	FetchedAt    time.Time             `json:"fetched_at" yaml:"fetched_at"`
}

// HasEmotion reports whether the backend reported an emotion at all.
func (s StatusSnapshot) HasEmotion() bool {
	return s.Emotion != ""
}

// newSnapshot validates the optional fields of a status response once, so
// nothing downstream has to guess about presence.
func newSnapshot(resp CurrentStatusResponse, at time.Time) StatusSnapshot {
	snap := StatusSnapshot{
		Camera:    resp.Camera == CameraStarted,
		FetchedAt: at,
	}
	if resp.KnownCount != nil {
		snap.KnownCount = *resp.KnownCount
	}
	if resp.User != nil {
		snap.User = SanitizeLine(*resp.User)
	}
	if resp.Emotion != nil {
		snap.Emotion = SanitizeLine(*resp.Emotion)
		snap.EmotionLabel = snap.Emotion
	}
	if resp.EmotionKorean != nil && *resp.EmotionKorean != "" {
		snap.EmotionLabel = SanitizeLine(*resp.EmotionKorean)
	}
	if resp.Confidence != nil {
		snap.Confidence = clamp01(*resp.Confidence)
	}
	if resp.EmotionImage != nil {
		snap.EmotionImage = SanitizeLine(*resp.EmotionImage)
	}
	if resp.Behavior != nil {
		snap.Behavior = SanitizeLine(*resp.Behavior)
	}
	return snap
}

func sanitizeTraits(traits []PersonalityTrait) []PersonalityTrait {
	for i := range traits {
		traits[i].Trait = SanitizeLine(traits[i].Trait)
		traits[i].TraitKorean = SanitizeLine(traits[i].TraitKorean)
	}
	return traits
}

func sanitizeHistory(history []EmotionHistoryEntry) []EmotionHistoryEntry {
	for i := range history {
		history[i].Emotion = SanitizeLine(history[i].Emotion)
		history[i].EmotionKorean = SanitizeLine(history[i].EmotionKorean)
	}
	return history
}

// StatusPoller fetches the aggregate status on a fixed interval. A failed
// tick is logged and skipped; the next tick runs on schedule.
type StatusPoller struct {
	api      StatusAPI
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	snapshot  StatusSnapshot
	have      bool
	failures  int
	listeners []func(StatusSnapshot)
}

func NewStatusPoller(api StatusAPI, interval, timeout time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &StatusPoller{
		api:      api,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

// OnSnapshot registers a listener called after every successful poll.
func (p *StatusPoller) OnSnapshot(fn func(StatusSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Run polls until ctx is done.
func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one tick and returns the new snapshot.
func (p *StatusPoller) Poll(ctx context.Context) (StatusSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api.CurrentStatus(ctx)
	if err != nil {
		p.recordFailure(err)
		return StatusSnapshot{}, err
	}
	snap := newSnapshot(resp, p.now())

	// Both extras are optional; a missing endpoint renders as empty.
	var g errgroup.Group
	g.Go(func() error {
		traits, err := p.api.PersonalityInfo(ctx)
		if err != nil {
			Debugf("personality info unavailable: %v", err)
			traits = nil
		}
		snap.Personality = sanitizeTraits(traits)
		return nil
	})
	var history []EmotionHistoryEntry
	g.Go(func() error {
		h, err := p.api.EmotionHistory(ctx)
		if err != nil {
			Debugf("emotion history unavailable: %v", err)
			h = nil
		}
		history = h
		return nil
	})
	_ = g.Wait()
	snap.History = sanitizeHistory(history)

	p.mu.Lock()
	if p.failures > 0 {
		Infof("Status polling recovered after %d failed tick(s)", p.failures)
	}
	p.failures = 0
	p.snapshot = snap
	p.have = true
	listeners := p.listeners
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

func (p *StatusPoller) recordFailure(err error) {
	p.mu.Lock()
	p.failures++
	n := p.failures
	p.mu.Unlock()
	// One warning per outage, the rest only at debug level.
	if n == 1 {
		Warnf("Status update failed: %v", err)
	} else {
		Debugf("status update failed (%d in a row): %v", n, err)
	}
}

// Snapshot returns the latest snapshot and whether any poll succeeded yet.
func (p *StatusPoller) Snapshot() (StatusSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, p.have
}

// ChatEnabled reports whether chat input should be enabled: only while the
// backend reports the camera as started.
func (p *StatusPoller) ChatEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.have && p.snapshot.Camera
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
