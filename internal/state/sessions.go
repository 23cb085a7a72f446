package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Sessions persists one Session per chat.
type Sessions struct {
	store TTLStore
	ttl   time.Duration
}

func NewSessions(store TTLStore, ttl time.Duration) *Sessions {
	return &Sessions{store: store, ttl: ttl}
}

// Get returns the idle session when nothing is stored.
func (s *Sessions) Get(ctx context.Context, chatID int64) (Session, error) {
	data, ok, err := s.store.Get(ctx, sessionKey(chatID))
	if err != nil {
		return Session{}, fmt.Errorf("failed to get state: %w", err)
	}
	if !ok {
		return Session{}, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return sess, nil
}

// Save stores the session; saving an idle session clears it.
func (s *Sessions) Save(ctx context.Context, chatID int64, sess Session) error {
	if sess.Idle() {
		return s.Clear(ctx, chatID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey(chatID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *Sessions) Clear(ctx context.Context, chatID int64) error {
	if err := s.store.Del(ctx, sessionKey(chatID)); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

func sessionKey(chatID int64) string {
	return "state:" + strconv.FormatInt(chatID, 10)
}
