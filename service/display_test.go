package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayStatusAndLoading(t *testing.T) {
	d := NewStatusDisplay()
	var events []DisplayEvent
	d.Subscribe(func(ev DisplayEvent) { events = append(events, ev) })

	d.SetStatus(IndicatorActive, "Camera running")
	d.ShowLoading("")
	view := d.View()
	assert.Equal(t, IndicatorActive, view.Kind)
	assert.Equal(t, "Camera running", view.Text)
	assert.True(t, view.Loading)
	assert.Equal(t, "Processing...", view.LoadingMessage)

	d.HideLoading()
	d.HideLoading() // second hide is a no-op
	assert.False(t, d.View().Loading)

	require.Len(t, events, 3)
	assert.Equal(t, EventStatus, events[0].Type)
	assert.Equal(t, EventLoadingShown, events[1].Type)
	assert.Equal(t, EventLoadingHidden, events[2].Type)
}

func TestDisplayNotificationsExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	d := NewStatusDisplay()
	d.now = func() time.Time { return now }

	d.Notify(NotifySuccess, "Alice: registered as a new user")
	now = now.Add(2 * time.Second)
	d.Notify(NotifyError, "Registration failed")

	view := d.View()
	require.Len(t, view.Notifications, 2)
	assert.Equal(t, NotifySuccess, view.Notifications[0].Level)

	now = now.Add(1500 * time.Millisecond)
	view = d.View()
	require.Len(t, view.Notifications, 1, "the first toast is older than its lifetime")
	assert.Equal(t, "Registration failed", view.Notifications[0].Message)

	now = now.Add(NotificationLifetime)
	assert.Empty(t, d.View().Notifications)
}
