package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session owns the token and cached user. Every change is written to the store
// and announced on the bus.
type Session struct {
	mu    sync.RWMutex
	store *Store
	bus   *Bus
	token string
	user  *User
}

// NewSession restores any token and user saved by an earlier run.
func NewSession(ctx context.Context, store *Store, bus *Bus) (*Session, error) {
	s := &Session{store: store, bus: bus}

	token, ok, err := store.Get(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return s, nil
	}
	s.token = token

	raw, ok, err := store.Get(ctx, KeyUser)
	if err != nil {
		return nil, err
	}
	if ok {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.user = &u
		}
	}
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) Set(ctx context.Context, token string, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.Set(ctx, KeyUser, string(raw)); err != nil {
		s.mu.Unlock()
		return err
	}
	s.token = token
	s.user = &user
	s.mu.Unlock()

	u := user
	s.bus.Publish(Event{Kind: EventLogin, User: &u})
	return nil
}

// Clear drops the session. forced marks a logout the user did not ask for.
// In-memory state is cleared even if the store write fails.
func (s *Session) Clear(ctx context.Context, forced bool) error {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.user = nil
	err := s.store.Delete(ctx, KeyToken, KeyUser)
	s.mu.Unlock()

	if had || !forced {
		s.bus.Publish(Event{Kind: EventLogout, Forced: forced})
	}
	return err
}

func (s *Session) Subscribe(fn func(Event)) func() {
	return s.bus.Subscribe(fn)
}
