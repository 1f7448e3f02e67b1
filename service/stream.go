package service

// StreamState is the lifecycle state of a StreamSession.
type StreamState int

const (
	StreamStopped StreamState = iota
	StreamStarting
	StreamActive
	StreamReconnecting
	StreamError
)

func (s StreamState) String() string {
	switch s {
	case StreamStopped:
		return "stopped"
	case StreamStarting:
		return "starting"
	case StreamActive:
		return "active"
	case StreamReconnecting:
		return "reconnecting"
	case StreamError:
		return "error"
	default:
		return "unknown"
	}
}

// Streaming reports whether the feed is supposed to be live.
func (s StreamState) Streaming() bool {
	return s == StreamActive || s == StreamReconnecting
}

// Controls is the enablement of the start/stop/register controls.
type Controls struct {
	Start    bool
	Stop     bool
	Register bool
}

// ControlsFor derives the control enablement from a state. The UI never
// toggles controls on its own; it always asks this function.
func ControlsFor(s StreamState) Controls {
	switch s {
	case StreamStarting:
		return Controls{Start: false, Stop: true, Register: false}
	case StreamActive, StreamReconnecting:
		return Controls{Start: false, Stop: true, Register: true}
	default:
		return Controls{Start: true, Stop: false, Register: false}
	}
}

// FeedSink is whatever consumes the video feed. Only StreamSession calls it.
type FeedSink interface {
	// Attach points the sink at url, dropping any previous connection.
	Attach(url string)
	// Detach drops the connection and clears the source.
	Detach()
}
