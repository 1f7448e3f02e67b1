package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastNotification(t *testing.T, d *StatusDisplay) Notification {
	t.Helper()
	notes := d.View().Notifications
	require.NotEmpty(t, notes)
	return notes[len(notes)-1]
}

func TestRegisterUpdatedWording(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathRegisterFace, 200, `{"ok":true,"name":"Alice","updated":true}`)
	display := NewStatusDisplay()
	flow := NewRegistrationFlow(b.client(t), display)

	flow.Open()
	flow.SetName("Alice")
	result, err := flow.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Updated)

	note := lastNotification(t, display)
	assert.Equal(t, NotifySuccess, note.Level)
	assert.Contains(t, note.Message, "updated")
	assert.NotContains(t, note.Message, "new user")
	assert.False(t, flow.IsOpen(), "modal closes on success")
	assert.Empty(t, flow.Name(), "name field is cleared")
	assert.False(t, display.View().Loading)
}

func TestRegisterNewUserWording(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathRegisterFace, 200, `{"success":true,"name":"Bora"}`)
	display := NewStatusDisplay()
	flow := NewRegistrationFlow(b.client(t), display)

	flow.Open()
	flow.SetName("  Bora ")
	_, err := flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bora: registered as a new user", lastNotification(t, display).Message)
}

func TestRegisterStripsControlSequencesFromName(t *testing.T) {
	b := newFakeBackend(t)
	b.json(PathRegisterFace, 200, `{"success":true,"name":"Bora\u001b]0;pwned\u0007\u001b[2J"}`)
	display := NewStatusDisplay()
	flow := NewRegistrationFlow(b.client(t), display)

	flow.Open()
	flow.SetName("Bora")
	result, err := flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bora", result.Name)
	assert.Equal(t, "Bora: registered as a new user", lastNotification(t, display).Message)
}

func TestRegisterEmptyName(t *testing.T) {
	b := newFakeBackend(t)
	display := NewStatusDisplay()
	flow := NewRegistrationFlow(b.client(t), display)

	flow.Open()
	flow.SetName("   ")
	_, err := flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyName)

	note := lastNotification(t, display)
	assert.Equal(t, NotifyWarning, note.Level)
	assert.Equal(t, "Please enter a name.", note.Message)
	assert.True(t, flow.IsOpen(), "modal stays open")
	assert.Empty(t, b.seen(), "nothing is sent")
}

func TestRegisterFailures(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"no face", 400, `{"ok":false,"msg":"No face detected"}`, "No face detected"},
		{"conflict", 409, `{"ok":false,"msg":"Camera is not running"}`, "Camera is not running"},
		{"soft failure", 200, `{"ok":false,"message":"Face too small"}`, "Face too small"},
		{"no message", 200, `{"ok":false}`, "Registration failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend(t)
			b.json(PathRegisterFace, tt.code, tt.body)
			display := NewStatusDisplay()
			flow := NewRegistrationFlow(b.client(t), display)

			flow.Open()
			flow.SetName("Alice")
			_, err := flow.Submit(context.Background())
			require.Error(t, err)

			note := lastNotification(t, display)
			assert.Equal(t, NotifyError, note.Level)
			assert.Contains(t, note.Message, tt.want)
			assert.True(t, flow.IsOpen(), "modal stays open for a retry")
			assert.Equal(t, "Alice", flow.Name())
			assert.False(t, display.View().Loading)
		})
	}
}

func TestRegisterCancelClears(t *testing.T) {
	flow := NewRegistrationFlow(nil, nil)
	flow.Open()
	flow.SetName("Alice")
	flow.Cancel()
	assert.False(t, flow.IsOpen())
	assert.Empty(t, flow.Name())

	flow.SetName("stale")
	flow.Open()
	assert.Empty(t, flow.Name(), "opening starts from an empty field")
}
