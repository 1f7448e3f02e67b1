package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/activebook/lulu/data"
	"github.com/google/uuid"
)

// Transcript is a saved copy of one session's chat log.
type Transcript struct {
	ID        string        `json:"id"`
	Server    string        `json:"server"`
	StartedAt time.Time     `json:"started_at"`
	Messages  []ChatMessage `json:"messages"`
}

func NewTranscript(server string) *Transcript {
	return &Transcript{
		ID:        uuid.NewString(),
		Server:    server,
		StartedAt: time.Now(),
	}
}

// ShortID is the first block of the id, enough to name a transcript on
// the command line.
func (t *Transcript) ShortID() string {
	if len(t.ID) >= 8 {
		return t.ID[:8]
	}
	return t.ID
}

// SaveTranscript writes t to the store. Empty transcripts are skipped.
func SaveTranscript(store *data.TranscriptStore, t *Transcript) (bool, error) {
	if len(t.Messages) == 0 {
		return false, nil
	}
	if _, err := uuid.Parse(t.ID); err != nil {
		return false, fmt.Errorf("invalid transcript id %q: %w", t.ID, err)
	}
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := store.Save(t.ID, raw); err != nil {
		return false, err
	}
	return true, nil
}

// LoadTranscript reads the transcript whose id is, or starts with, id.
func LoadTranscript(store *data.TranscriptStore, id string) (*Transcript, error) {
	full, err := store.Resolve(id)
	if err != nil {
		return nil, err
	}
	raw, err := store.Load(full)
	if err != nil {
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript '%s': %w", full, err)
	}
	if t.ID == "" {
		t.ID = full
	}
	return &t, nil
}
