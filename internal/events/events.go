package events

import (
	"context"
	"sync"
	"time"
)

const (
	TopicUserEvents    = "user_events"
	TopicCommandEvents = "command_events"
)

const (
	TypeUserRegistered = "user_registered"
	TypeUserLoggedIn   = "user_logged_in"
	TypeCommandSaved   = "command_saved"
	TypeCommandDeleted = "command_deleted"
)

type UserEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

type CommandEvent struct {
	Type      string    `json:"type"`
	CommandID string    `json:"commandId"`
	UserID    string    `json:"userId"`
	AppName   string    `json:"appName,omitempty"`
	OS        string    `json:"os,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers one event to a topic. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
func (Noop) Close() error                                        { return nil }

type Published struct {
	Topic string
	Key   string
	Event any
}

// Memory keeps published events in order. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (m *Memory) Publish(_ context.Context, topic, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Published, len(m.events))
	copy(out, m.events)
	return out
}
