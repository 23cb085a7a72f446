package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shrot-bot/internal/pricing"
)

func TestSessionTransitions(t *testing.T) {
	sess, err := Begin(FlowOrder)
	require.NoError(t, err)
	assert.Equal(t, StepOrderQuantity, sess.Step)
	assert.Equal(t, FlowOrder, sess.Flow())

	require.NoError(t, sess.Advance(StepOrderAddress))
	require.NoError(t, sess.Advance(StepOrderConfirm))

	err = sess.Advance(StepOrderQuantity)
	require.ErrorIs(t, err, ErrIllegalStep)
	assert.Equal(t, StepOrderConfirm, sess.Step)

	_, err = Begin(FlowNone)
	require.ErrorIs(t, err, ErrIllegalStep)

	var idle Session
	assert.True(t, idle.Idle())
	assert.Equal(t, FlowNone, idle.Flow())
	require.ErrorIs(t, idle.Advance(StepOrderAddress), ErrIllegalStep)
}

func TestAdminOrderBranches(t *testing.T) {
	found, err := Begin(FlowAdminOrder)
	require.NoError(t, err)
	require.NoError(t, found.Advance(StepAdminOrderAddress))

	walkIn, err := Begin(FlowAdminOrder)
	require.NoError(t, err)
	require.NoError(t, walkIn.Advance(StepAdminOrderName))
	require.NoError(t, walkIn.Advance(StepAdminOrderAddress))
	require.ErrorIs(t, walkIn.Advance(StepAdminOrderConfirm), ErrIllegalStep)
}

func TestEveryStepBelongsToItsFlow(t *testing.T) {
	for flow, entry := range entrySteps {
		assert.Equal(t, flow, FlowOf(entry), entry)
	}
	for from, targets := range transitions {
		for _, to := range targets {
			assert.Equal(t, FlowOf(from), FlowOf(to), "%s -> %s", from, to)
		}
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(NewMemoryStore(), time.Hour)

	sess, err := sessions.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, sess.Idle())

	sess, err = Begin(FlowOrder)
	require.NoError(t, err)
	lat := 41.3
	sess.Order = &OrderDraft{ProductID: 3, Quantity: pricing.NewQuantity(2.3), Latitude: &lat}
	require.NoError(t, sessions.Save(ctx, 7, sess))

	loaded, err := sessions.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, StepOrderQuantity, loaded.Step)
	require.NotNil(t, loaded.Order)
	assert.Equal(t, "2.3 tonna", loaded.Order.Quantity.String())
	kg, ok := loaded.Order.Quantity.Kilograms()
	require.True(t, ok)
	assert.InDelta(t, 2300, kg, 1e-9)
	assert.Equal(t, lat, *loaded.Order.Latitude)

	require.NoError(t, sessions.Save(ctx, 7, Session{}))
	cleared, err := sessions.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, cleared.Idle())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	ok, err := store.SetNX(ctx, "a", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Incr(ctx, "c", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	now = now.Add(2 * time.Minute)
	_, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	n, err = store.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter restarts after its window")

	ok, err = store.SetNX(ctx, "a", []byte("3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestRelayAndMarks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	relay := NewRelay(store, time.Hour)
	require.NoError(t, relay.Remember(ctx, -100, 55, 42))
	user, ok, err := relay.Lookup(ctx, -100, 55)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), user)

	_, ok, err = relay.Lookup(ctx, -100, 56)
	require.NoError(t, err)
	assert.False(t, ok)

	marks := NewMarks(store, "reject", time.Hour)
	first, err := marks.First(ctx, "42:album")
	require.NoError(t, err)
	assert.True(t, first)
	first, err = marks.First(ctx, "42:album")
	require.NoError(t, err)
	assert.False(t, first)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(NewMemoryStore(), "support", 2, time.Hour)

	for i, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "attempt %d", i+1)
	}
	ok, err := limiter.Allow(ctx, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	unlimited := NewRateLimiter(NewMemoryStore(), "support", 0, time.Hour)
	ok, err = unlimited.Allow(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)
}

type readyRecorder struct {
	mu      sync.Mutex
	batches []MediaBatch
	ready   chan struct{}
}

func newReadyRecorder() *readyRecorder {
	return &readyRecorder{ready: make(chan struct{}, 16)}
}

func (r *readyRecorder) onReady(_ int64, batch MediaBatch) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	r.ready <- struct{}{}
}

func (r *readyRecorder) snapshot() []MediaBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MediaBatch(nil), r.batches...)
}

func TestMediaGroupDebounce(t *testing.T) {
	rec := newReadyRecorder()
	buf := NewMediaGroupBuffer(200*time.Millisecond, time.Hour, rec.onReady)

	buf.Add(1, "g1", MediaItem{Kind: MediaPhoto, FileID: "p1"}, "")
	time.Sleep(20 * time.Millisecond)
	buf.Add(1, "g1", MediaItem{Kind: MediaVideo, FileID: "v1"}, "first caption")
	time.Sleep(20 * time.Millisecond)
	buf.Add(1, "g1", MediaItem{Kind: MediaPhoto, FileID: "p2"}, "second caption")

	select {
	case <-rec.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("batch was not finalized")
	}

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "first caption", batches[0].Caption)
	assert.Equal(t, []MediaItem{
		{Kind: MediaPhoto, FileID: "p1"},
		{Kind: MediaVideo, FileID: "v1"},
		{Kind: MediaPhoto, FileID: "p2"},
	}, batches[0].Items)

	buf.Add(1, "g1", MediaItem{Kind: MediaPhoto, FileID: "late"}, "")
	time.Sleep(400 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1, "late parts must not finalize again")
}

func TestMediaGroupFinalizesAtLimit(t *testing.T) {
	rec := newReadyRecorder()
	buf := NewMediaGroupBuffer(time.Hour, time.Hour, rec.onReady)

	for i := 0; i < MaxMediaGroupItems+2; i++ {
		buf.Add(5, "album", MediaItem{Kind: MediaPhoto, FileID: "p"}, "")
	}

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Items, MaxMediaGroupItems)
	assert.Equal(t, 0, buf.Len())
}

func TestMediaGroupDropAndSweep(t *testing.T) {
	rec := newReadyRecorder()
	buf := NewMediaGroupBuffer(20*time.Millisecond, time.Minute, rec.onReady)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	buf.now = func() time.Time { return now }

	buf.Add(1, "g", MediaItem{Kind: MediaPhoto, FileID: "p"}, "")
	buf.Drop(1)
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	buf.Add(2, "g", MediaItem{Kind: MediaPhoto, FileID: "p"}, "")
	<-rec.ready
	assert.Equal(t, 0, buf.Len())

	buf.Add(2, "g", MediaItem{Kind: MediaPhoto, FileID: "late"}, "")
	assert.Equal(t, 0, buf.Len())

	buf.Add(3, "h", MediaItem{Kind: MediaPhoto, FileID: "p"}, "")
	buf.Drop(3)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, buf.Sweep())

	buf.Add(2, "g", MediaItem{Kind: MediaPhoto, FileID: "again"}, "")
	assert.Equal(t, 1, buf.Len())
	buf.Drop(2)
}
