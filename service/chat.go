package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ChatFallbackReply is appended as the assistant's answer when the chat
// endpoint cannot be reached or fails.
const ChatFallbackReply = "Server connection failed. Beep beep..."

// ChatOrigin tells who wrote a message.
type ChatOrigin string

const (
	OriginUser      ChatOrigin = "user"
	OriginAssistant ChatOrigin = "assistant"
)

// ChatMessage is one entry of the chat log.
type ChatMessage struct {
	Content string     `json:"content"`
	Origin  ChatOrigin `json:"origin"`
	At      time.Time  `json:"at"`
}

// ChatLog is an ordered, append-only message log. Entries are never
// mutated or removed.
type ChatLog struct {
	mu       sync.RWMutex
	messages []ChatMessage
	onAppend []func(ChatMessage)
}

func NewChatLog() *ChatLog {
	return &ChatLog{}
}

// OnAppend registers a listener called for every appended message.
func (l *ChatLog) OnAppend(fn func(ChatMessage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAppend = append(l.onAppend, fn)
}

func (l *ChatLog) Append(origin ChatOrigin, content string) ChatMessage {
	msg := ChatMessage{Content: content, Origin: origin, At: time.Now()}
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	listeners := l.onAppend
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(msg)
	}
	return msg
}

// Messages returns a copy of the log.
func (l *ChatLog) Messages() []ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *ChatLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// ChatAPI is the part of the backend ChatRelay depends on.
type ChatAPI interface {
	Chat(ctx context.Context, message string) (ChatResponse, error)
}

// ChatRelay sends user messages to the chat endpoint and records both
// sides of the exchange.
type ChatRelay struct {
	api     ChatAPI
	log     *ChatLog
	display *StatusDisplay
}

func NewChatRelay(api ChatAPI, log *ChatLog, display *StatusDisplay) *ChatRelay {
	if log == nil {
		log = NewChatLog()
	}
	if display == nil {
		display = NewStatusDisplay()
	}
	return &ChatRelay{api: api, log: log, display: display}
}

func (c *ChatRelay) Log() *ChatLog {
	return c.log
}

// Send trims text and relays it. A blank message is rejected with
// ErrEmptyMessage before anything is logged or sent. The user's message is
// appended immediately; the reply, or ChatFallbackReply on failure, follows.
// The returned error describes the failure; the log is complete either way.
func (c *ChatRelay) Send(ctx context.Context, text string) (ChatMessage, error) {
	message := strings.TrimSpace(text)
	if message == "" {
		return ChatMessage{}, ErrEmptyMessage
	}

	c.log.Append(OriginUser, message)

	resp, err := c.api.Chat(ctx, message)
	if err == nil && resp.Response != nil && *resp.Response != "" {
		return c.log.Append(OriginAssistant, *resp.Response), nil
	}

	if err == nil {
		reason := "Response error"
		if resp.Error != nil && *resp.Error != "" {
			reason = *resp.Error
		}
		c.display.Notify(NotifyError, reason)
		Warnf("Chat error: %s", reason)
		return c.log.Append(OriginAssistant, ChatFallbackReply), &DecodeError{Endpoint: PathChat, Err: errors.New(reason)}
	}

	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		c.display.Notify(NotifyError, se.Message)
	}
	Errorf("Chat error: %v", err)
	return c.log.Append(OriginAssistant, ChatFallbackReply), err
}
