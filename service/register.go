package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// RegisterAPI is the part of the backend RegistrationFlow depends on.
type RegisterAPI interface {
	RegisterFace(ctx context.Context, name string) (RegisterResponse, error)
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	Name    string
	Updated bool
	Message string
}

// RegistrationFlow drives the "register my face" modal: it collects a name,
// submits it and reports the outcome through the status display.
type RegistrationFlow struct {
	api     RegisterAPI
	display *StatusDisplay

	mu   sync.Mutex
	open bool
	name string
}

func NewRegistrationFlow(api RegisterAPI, display *StatusDisplay) *RegistrationFlow {
	if display == nil {
		display = NewStatusDisplay()
	}
	return &RegistrationFlow{api: api, display: display}
}

// Open shows the modal with an empty name field.
func (f *RegistrationFlow) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.name = ""
}

// Cancel hides the modal and clears the name field.
func (f *RegistrationFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.name = ""
}

func (f *RegistrationFlow) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *RegistrationFlow) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
}

func (f *RegistrationFlow) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Submit registers the face currently in front of the camera under the
// entered name. On success the modal closes and the field is cleared; on
// any failure the modal stays open so the user can retry.
func (f *RegistrationFlow) Submit(ctx context.Context) (RegisterResult, error) {
	name := strings.TrimSpace(f.Name())
	if name == "" {
		f.display.Notify(NotifyWarning, "Please enter a name.")
		return RegisterResult{}, ErrEmptyName
	}

	f.display.ShowLoading("Registering user...")
	defer f.display.HideLoading()

	resp, err := f.api.RegisterFace(ctx, name)
	if err == nil && !resp.Succeeded() {
		text := resp.Text()
		if text == "" {
			text = "Registration failed"
		}
		err = errors.New(text)
	}
	if err != nil {
		msg := registrationErrorText(err)
		Errorf("User registration failed: %v", err)
		f.display.Notify(NotifyError, msg)
		return RegisterResult{}, err
	}

	registered := SanitizeLine(resp.Name)
	if registered == "" {
		registered = name
	}
	result := RegisterResult{
		Name:    registered,
		Updated: resp.Updated,
		Message: RegistrationMessage(registered, resp.Updated),
	}
	f.display.Notify(NotifySuccess, result.Message)
	f.display.SetStatus(IndicatorActive, "Registered: "+registered)
	Infof("%s", result.Message)

	f.Cancel()
	return result, nil
}

// RegistrationMessage words the success notification; an update of an
// existing user reads differently from a brand new one.
func RegistrationMessage(name string, updated bool) string {
	if updated {
		return fmt.Sprintf("%s: updated existing registration", name)
	}
	return fmt.Sprintf("%s: registered as a new user", name)
}

func registrationErrorText(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return "Registration failed: " + SanitizeLine(se.Message)
	}
	if IsTransportError(err) {
		return "Registration failed: server unreachable"
	}
	if IsStatusError(err) || IsDecodeError(err) {
		return "Registration failed"
	}
	return err.Error()
}
