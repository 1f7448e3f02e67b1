package service

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerSnapshot(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathCurrentStatus, 200, `{"camera":"started","known_count":2,"user":"Alice","emotion":"happy","emotion_korean":"행복","confidence":1.4,"behavior":"wave"}`)
	b.json(PathPersonalityInfo, 200, `[{"trait_korean":"외향성","value":0.6}]`)
	b.json(PathEmotionHistory, 200, `[]`)
	p := NewStatusPoller(b.client(t), time.Second, time.Second)

	var got []StatusSnapshot
	p.OnSnapshot(func(s StatusSnapshot) { got = append(got, s) })

	snap, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Camera)
	assert.Equal(t, 2, snap.KnownCount)
	assert.Equal(t, "Alice", snap.User)
	assert.Equal(t, "happy", snap.Emotion)
	assert.Equal(t, "행복", snap.EmotionLabel)
	assert.Equal(t, 1.0, snap.Confidence, "confidence is clamped to 1")
	assert.Equal(t, "wave", snap.Behavior)
	require.Len(t, snap.Personality, 1)
	assert.Empty(t, snap.History)
	assert.True(t, p.ChatEnabled())

	require.Len(t, got, 1)
	assert.Equal(t, snap, got[0])
}

func TestPollerStripsControlSequences(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathCurrentStatus, 200, `{"camera":"started","user":"eve\u001b]0;pwned\u0007\u001b[2J","emotion":"happy","emotion_korean":"\u001b[H행복","behavior":"wave\nagain"}`)
	b.json(PathPersonalityInfo, 200, `[{"trait_korean":"\u001b[31m외향성","value":0.6}]`)
	b.json(PathEmotionHistory, 200, `[{"emotion":"sad","emotion_korean":"슬픔\u001b[0m","confidence":0.5,"timestamp":"2025-01-01T00:00:00Z"}]`)
	p := NewStatusPoller(b.client(t), time.Second, time.Second)

	snap, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eve", snap.User)
	assert.Equal(t, "행복", snap.EmotionLabel)
	assert.Equal(t, "wave again", snap.Behavior)
	require.Len(t, snap.Personality, 1)
	assert.Equal(t, "외향성", snap.Personality[0].Label())
	require.Len(t, snap.History, 1)
	assert.Equal(t, "슬픔", snap.History[0].Label())
}

func TestPollerMinimalStatus(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathCurrentStatus, 200, `{"camera":"stopped","known_count":0}`)
	p := NewStatusPoller(b.client(t), time.Second, time.Second)

	snap, err := p.Poll(context.Background())
	require.NoError(t, err, "missing optional endpoints are not an error")
	assert.False(t, snap.Camera)
	assert.False(t, snap.HasEmotion())
	assert.Empty(t, snap.Personality)
	assert.Empty(t, snap.History)
	assert.False(t, p.ChatEnabled(), "chat is disabled while the camera is off")
}

func TestPollerFailureKeepsSnapshot(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathCurrentStatus, 200, `{"camera":"started"}`)
	p := NewStatusPoller(b.client(t), time.Second, time.Second)

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	before, ok := p.Snapshot()
	require.True(t, ok)

	b.json(PathCurrentStatus, 503, `{"msg":"warming up"}`)
	_, err = p.Poll(context.Background())
	assert.True(t, IsStatusError(err))

	after, ok := p.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, before, after, "a failed tick must not change the snapshot")
	assert.True(t, p.ChatEnabled())
}

func TestPollerNoSnapshotBeforeFirstPoll(t *testing.T) {
	p := NewStatusPoller(nil, 0, 0)
	_, ok := p.Snapshot()
	assert.False(t, ok)
	assert.False(t, p.ChatEnabled())
	assert.Equal(t, DefaultPollInterval, p.interval)
}

func TestPollerRunPollsImmediatelyAndStops(t *testing.T) {
	var hits atomic.Int32
	b := newFakeBackend(t)
	b.handle(PathCurrentStatus, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"camera":"started"}`))
	})
	p := NewStatusPoller(b.client(t), 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
