package service

import (
	"sync"
	"time"
)

// IndicatorKind is the colour of the status dot.
type IndicatorKind string

const (
	IndicatorIdle   IndicatorKind = "idle"
	IndicatorActive IndicatorKind = "active"
	IndicatorError  IndicatorKind = "error"
)

// NotifyLevel classifies a transient notification.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

const NotificationLifetime = 3 * time.Second

// Notification is a toast shown for NotificationLifetime.
type Notification struct {
	Level   NotifyLevel
	Message string
	At      time.Time
}

// DisplayView is a copy of everything the display currently shows.
type DisplayView struct {
	Kind           IndicatorKind
	Text           string
	Loading        bool
	LoadingMessage string
	Notifications  []Notification
}

// DisplayEventType tells listeners what changed.
type DisplayEventType int

const (
	EventStatus DisplayEventType = iota
	EventLoadingShown
	EventLoadingHidden
	EventNotification
)

// DisplayEvent is delivered to subscribers on every change.
type DisplayEvent struct {
	Type         DisplayEventType
	Kind         IndicatorKind
	Text         string
	Level        NotifyLevel
	Notification *Notification
}

// StatusDisplay holds presentation state: the status dot and its text, the
// loading overlay and the notification toasts. It makes no network calls.
type StatusDisplay struct {
	mu        sync.Mutex
	kind      IndicatorKind
	text      string
	loading   bool
	loadMsg   string
	notes     []Notification
	listeners []func(DisplayEvent)
	now       func() time.Time
}

func NewStatusDisplay() *StatusDisplay {
	return &StatusDisplay{
		kind: IndicatorIdle,
		text: "Waiting",
		now:  time.Now,
	}
}

// Subscribe registers a listener. Listeners run synchronously on the
// goroutine that changed the display and must not call back into it.
func (d *StatusDisplay) Subscribe(fn func(DisplayEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *StatusDisplay) SetStatus(kind IndicatorKind, text string) {
	d.mu.Lock()
	d.kind = kind
	d.text = text
	listeners := d.listeners
	d.mu.Unlock()
	emit(listeners, DisplayEvent{Type: EventStatus, Kind: kind, Text: text})
}

func (d *StatusDisplay) ShowLoading(message string) {
	if message == "" {
		message = "Processing..."
	}
	d.mu.Lock()
	d.loading = true
	d.loadMsg = message
	listeners := d.listeners
	d.mu.Unlock()
	emit(listeners, DisplayEvent{Type: EventLoadingShown, Text: message})
}

func (d *StatusDisplay) HideLoading() {
	d.mu.Lock()
	if !d.loading {
		d.mu.Unlock()
		return
	}
	d.loading = false
	d.loadMsg = ""
	listeners := d.listeners
	d.mu.Unlock()
	emit(listeners, DisplayEvent{Type: EventLoadingHidden})
}

func (d *StatusDisplay) Notify(level NotifyLevel, message string) {
	n := Notification{Level: level, Message: message, At: d.now()}
	d.mu.Lock()
	d.notes = append(d.pruneLocked(), n)
	listeners := d.listeners
	d.mu.Unlock()
	emit(listeners, DisplayEvent{Type: EventNotification, Level: level, Text: message, Notification: &n})
}

// View returns a copy of the current state with expired notifications dropped.
func (d *StatusDisplay) View() DisplayView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notes = d.pruneLocked()
	notes := make([]Notification, len(d.notes))
	copy(notes, d.notes)
	return DisplayView{
		Kind:           d.kind,
		Text:           d.text,
		Loading:        d.loading,
		LoadingMessage: d.loadMsg,
		Notifications:  notes,
	}
}

func (d *StatusDisplay) pruneLocked() []Notification {
	now := d.now()
	kept := d.notes[:0]
	for _, n := range d.notes {
		if now.Sub(n.At) < NotificationLifetime {
			kept = append(kept, n)
		}
	}
	return kept
}

func emit(listeners []func(DisplayEvent), ev DisplayEvent) {
	for _, fn := range listeners {
		fn(ev)
	}
}
