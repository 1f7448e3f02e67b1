package cmd

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/activebook/lulu/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(now time.Time) service.StatusSnapshot {
	return service.StatusSnapshot{
		Camera:       true,
		KnownCount:   3,
		User:         "Mina",
		Emotion:      "happy",
		EmotionLabel: "기쁨",
		Confidence:   0.7,
		Personality: []service.PersonalityTrait{
			{Trait: "openness", TraitKorean: "개방성", Value: 0.5},
		},
		History: []service.EmotionHistoryEntry{
			{Emotion: "sad", EmotionKorean: "슬픔", Confidence: 0.4, Timestamp: service.Timestamp{Time: now.Add(-5 * time.Minute)}},
		},
		FetchedAt: now,
	}
}

func TestWriteSnapshotJSON(t *testing.T) {
	now := time.Now()
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, testSnapshot(now), "json", now))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Mina", got["user"])
	assert.Equal(t, float64(3), got["known_count"])
	assert.Equal(t, true, got["camera"])
	assert.Len(t, got["history"], 1)
}

func TestWriteSnapshotYAML(t *testing.T) {
	now := time.Now()
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, testSnapshot(now), "yaml", now))

	out := buf.String()
	assert.Contains(t, out, "known_count: 3")
	assert.Contains(t, out, "user: Mina")
	assert.Contains(t, out, "confidence: 0.7")
}

func TestWriteSnapshotUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeSnapshot(&buf, service.StatusSnapshot{}, "xml", time.Now())
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestFormatSnapshotText(t *testing.T) {
	now := time.Now()
	out := formatSnapshot(testSnapshot(now), now)

	assert.Contains(t, out, "Mina")
	assert.Contains(t, out, "기쁨")
	assert.Contains(t, out, "70%")
	assert.Contains(t, out, "개방성")
	assert.Contains(t, out, "5 min ago")
}

func TestFormatSnapshotEmpty(t *testing.T) {
	out := formatSnapshot(service.StatusSnapshot{}, time.Now())
	assert.Contains(t, out, "nobody recognized")
	assert.NotContains(t, out, "Personality")
	assert.NotContains(t, out, "Recent emotions")
}

func TestSnapshotLine(t *testing.T) {
	tests := []struct {
		name string
		snap service.StatusSnapshot
		want string
	}{
		{"empty", service.StatusSnapshot{}, "user=- emotion=-"},
		{"user only", service.StatusSnapshot{User: "Mina"}, "user=Mina emotion=-"},
		{
			"emotion",
			service.StatusSnapshot{User: "Mina", Emotion: "happy", EmotionLabel: "happy", Confidence: 0.5},
			"user=Mina emotion=😊 happy (50%)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snapshotLine(tt.snap))
		})
	}
}
