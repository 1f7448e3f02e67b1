package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/activebook/lulu/data"
)

// CompanionOptions configures a Companion.
type CompanionOptions struct {
	ServerURL      string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	SnapshotPath   string
	Session        SessionConfig
	AutoStart      bool
	// Scheduler drives session timers; nil means real timers.
	Scheduler Scheduler
}

// OptionsFromConfig maps the typed configuration onto CompanionOptions.
func OptionsFromConfig(cfg *data.ConfigStore) CompanionOptions {
	stream := cfg.Stream()
	return CompanionOptions{
		ServerURL:      cfg.ServerURL(),
		RequestTimeout: cfg.ServerTimeout(),
		PollInterval:   cfg.PollInterval(),
		SnapshotPath:   cfg.SnapshotPath(),
		AutoStart:      stream.AutoStart,
		Session: SessionConfig{
			HealthInterval: stream.HealthInterval,
			RequestTimeout: cfg.ServerTimeout(),
			Backoff: BackoffConfig{
				Base:   stream.BackoffBase,
				Factor: stream.BackoffFactor,
				Cap:    stream.BackoffCap,
			},
		},
	}
}

// Companion owns every component of one client session and wires them
// together. Nothing here is global: the dashboard and each command build
// their own.
type Companion struct {
	Client     *Client
	Display    *StatusDisplay
	Feed       *FeedReader
	Session    *StreamSession
	Poller     *StatusPoller
	Chat       *ChatRelay
	Register   *RegistrationFlow
	Transcript *Transcript

	opts     CompanionOptions
	mu       sync.Mutex
	cancel   context.CancelFunc
	pollDone chan struct{}
}

func NewCompanion(opts CompanionOptions) (*Companion, error) {
	client, err := NewClient(opts.ServerURL, opts.RequestTimeout)
	if err != nil {
		return nil, err
	}

	display := NewStatusDisplay()
	feed := NewFeedReader(opts.SnapshotPath)
	session := NewStreamSession(client, feed, display, opts.Scheduler, opts.Session)
	feed.OnError(session.StreamError)

	chatLog := NewChatLog()
	chatLog.OnAppend(func(m ChatMessage) {
		Debugf("chat %s message, %d bytes", m.Origin, len(m.Content))
	})

	return &Companion{
		Client:     client,
		Display:    display,
		Feed:       feed,
		Session:    session,
		Poller:     NewStatusPoller(client, opts.PollInterval, opts.RequestTimeout),
		Chat:       NewChatRelay(client, chatLog, display),
		Register:   NewRegistrationFlow(client, display),
		Transcript: NewTranscript(client.BaseURL()),
		opts:       opts,
	}, nil
}

// Run starts status polling in the background and, when AutoStart is set,
// starts the camera. A failed auto start leaves the session in Error, from
// which the user can start again.
func (c *Companion) Run(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.pollDone = make(chan struct{})
	done := c.pollDone
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.Poller.Run(ctx)
	}()

	if c.opts.AutoStart {
		go func() {
			if err := c.Session.Start(ctx); err != nil {
				Debugf("auto start: %v", err)
			}
		}()
	}
}

// Close stops polling and, if the feed is live, stops the camera.
func (c *Companion) Close(ctx context.Context) {
	c.mu.Lock()
	cancel, done := c.cancel, c.pollDone
	c.cancel, c.pollDone = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if c.Session.State() != StreamStopped {
		_ = c.Session.Stop(ctx)
	}
}

// SaveTranscript persists the chat log of this session, if it has one.
func (c *Companion) SaveTranscript(store *data.TranscriptStore) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transcript.Messages = c.Chat.Log().Messages()
	saved, err := SaveTranscript(store, c.Transcript)
	if err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}
	if !saved {
		return "", nil
	}
	return c.Transcript.ShortID(), nil
}
