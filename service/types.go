package service

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	CameraStarted = "started"
	CameraStopped = "stopped"
)

// CameraResponse is the body of /api/start_camera, /api/stop_camera and /api/camera_status.
type CameraResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}

// Started reports whether the backend claims the camera is producing frames.
func (r CameraResponse) Started() bool {
	return r.Status == CameraStarted
}

// CurrentStatusResponse is the body of /api/current_status.
// Everything except the camera field is optional; the backend adds
// recognition and emotion fields only once it has something to report.
type CurrentStatusResponse struct {
	Camera        string   `json:"camera"`
	KnownCount    *int     `json:"known_count,omitempty"`
	User          *string  `json:"user,omitempty"`
	Emotion       *string  `json:"emotion,omitempty"`
	EmotionKorean *string  `json:"emotion_korean,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
	EmotionImage  *string  `json:"emotion_image,omitempty"`
	Behavior      *string  `json:"behavior,omitempty"`
}

// PersonalityTrait is one entry of /api/personality_info.
type PersonalityTrait struct {
	Trait       string  `json:"trait,omitempty"`
	TraitKorean string  `json:"trait_korean"`
	Value       float64 `json:"value"`
}

// Label prefers the localized trait name and falls back to the raw key.
func (t PersonalityTrait) Label() string {
	if t.TraitKorean != "" {
		return t.TraitKorean
	}
	return t.Trait
}

// EmotionHistoryEntry is one entry of /api/emotion_history.
type EmotionHistoryEntry struct {
	Emotion       string    `json:"emotion,omitempty"`
	EmotionKorean string    `json:"emotion_korean"`
	Confidence    float64   `json:"confidence"`
	Timestamp     Timestamp `json:"timestamp"`
}

// Label prefers the localized emotion name and falls back to the raw key.
func (e EmotionHistoryEntry) Label() string {
	if e.EmotionKorean != "" {
		return e.EmotionKorean
	}
	return e.Emotion
}

// Timestamp accepts either an RFC3339 string or a unix epoch
// (seconds or milliseconds) in JSON.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if parsed, err := time.ParseInLocation(layout, str, time.Local); err == nil {
				t.Time = parsed
				return nil
			}
		}
		// Unknown layout, leave zero rather than failing the whole history.
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if n > 1e12 {
		t.Time = time.UnixMilli(int64(n))
	} else {
		t.Time = time.Unix(int64(n), 0)
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339), nil
}

// RegisterRequest is the body posted to /api/register_face.
type RegisterRequest struct {
	Name string `json:"name"`
}

// RegisterResponse is the body of /api/register_face. Older backends
// answered with success/message, newer ones with ok/msg; both are accepted.
type RegisterResponse struct {
	OK      *bool  `json:"ok,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Name    string `json:"name,omitempty"`
	Updated bool   `json:"updated,omitempty"`
	Msg     string `json:"msg,omitempty"`
	Message string `json:"message,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Succeeded reports the boolean success indicator, whichever field carried it.
func (r RegisterResponse) Succeeded() bool {
	if r.OK != nil {
		return *r.OK
	}
	if r.Success != nil {
		return *r.Success
	}
	return false
}

// Text returns the human-readable message, whichever field carried it.
func (r RegisterResponse) Text() string {
	switch {
	case r.Msg != "":
		return r.Msg
	case r.Message != "":
		return r.Message
	default:
		return r.Err
	}
}

// ChatRequest is the body posted to /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body of /api/chat: either a reply or an error.
type ChatResponse struct {
	Response *string `json:"response,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// errorBody is the loose shape used to pull a message out of non-2xx bodies.
type errorBody struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	switch {
	case b.Msg != "":
		return b.Msg
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}
