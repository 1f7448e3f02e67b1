package service

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned by ChatRelay.Send when the message is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEmptyName is returned by RegistrationFlow.Submit when no name was entered.
	ErrEmptyName = errors.New("name is empty")

	// ErrSessionBusy is returned by StreamSession.Start unless the session is Stopped or Error.
	ErrSessionBusy = errors.New("stream session is already running")

	// ErrCameraNotStarted is returned when the backend answers with a status other than "started".
	ErrCameraNotStarted = errors.New("camera not started")
)

// TransportError wraps a failure to reach the backend at all
// (dial, timeout, connection reset while reading the body).
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx HTTP status. Message carries whatever
// msg/message/error text the backend put in the body, if any.
type StatusError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned %d", e.Endpoint, e.Code)
}

// DecodeError reports a body that could not be interpreted for the endpoint.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsNotFound reports whether err is a 404 from the backend. Optional
// endpoints (personality, history) degrade silently on it.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}

func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
