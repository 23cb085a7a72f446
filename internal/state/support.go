package state

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Relay remembers which user a support message copy belongs to, so a reply in the
// support group can be routed back.
type Relay struct {
	store TTLStore
	ttl   time.Duration
}

func NewRelay(store TTLStore, ttl time.Duration) *Relay {
	return &Relay{store: store, ttl: ttl}
}

func (r *Relay) Remember(ctx context.Context, groupID int64, messageID int, userChatID int64) error {
	value := []byte(strconv.FormatInt(userChatID, 10))
	if err := r.store.Set(ctx, relayKey(groupID, messageID), value, r.ttl); err != nil {
		return fmt.Errorf("failed to remember support route: %w", err)
	}
	return nil
}

func (r *Relay) Lookup(ctx context.Context, groupID int64, messageID int) (int64, bool, error) {
	data, ok, err := r.store.Get(ctx, relayKey(groupID, messageID))
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up support route: %w", err)
	}
	if !ok {
		return 0, false, nil
	}
	userChatID, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt support route: %w", err)
	}
	return userChatID, true, nil
}

func relayKey(groupID int64, messageID int) string {
	return fmt.Sprintf("support:%d:%d", groupID, messageID)
}

// Marks records one-shot events, e.g. "this media group was already rejected".
type Marks struct {
	store  TTLStore
	prefix string
	ttl    time.Duration
}

func NewMarks(store TTLStore, prefix string, ttl time.Duration) *Marks {
	return &Marks{store: store, prefix: prefix, ttl: ttl}
}

// First is true for the first caller with this key within the TTL.
func (m *Marks) First(ctx context.Context, key string) (bool, error) {
	ok, err := m.store.SetNX(ctx, m.prefix+":"+key, []byte("1"), m.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to set mark: %w", err)
	}
	return ok, nil
}

// RateLimiter is a fixed-window counter per chat.
type RateLimiter struct {
	store  TTLStore
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(store TTLStore, prefix string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, prefix: prefix, limit: limit, window: window}
}

// Allow counts one event; a limit of zero or less disables limiting.
func (r *RateLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	n, err := r.store.Incr(ctx, fmt.Sprintf("%s:%d", r.prefix, chatID), r.window)
	if err != nil {
		return false, fmt.Errorf("failed to count event: %w", err)
	}
	return n <= r.limit, nil
}
