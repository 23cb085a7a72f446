package state

import (
	"context"
	"sync"
	"time"
)

// MaxMediaGroupItems is Telegram's album limit.
const MaxMediaGroupItems = 10

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

type MediaItem struct {
	Kind   MediaKind `json:"kind"`
	FileID string    `json:"file_id"`
}

// MediaBatch is a finished album.
type MediaBatch struct {
	GroupID string
	Items   []MediaItem
	Caption string
}

type pendingBatch struct {
	MediaBatch
	timer   *time.Timer
	touched time.Time
}

type groupKey struct {
	chatID  int64
	groupID string
}

// MediaGroupBuffer collects the parts of an album per chat. A batch is finalized once
// no part arrived for the debounce delay, or right away when it reaches
// MaxMediaGroupItems; onReady is called exactly once per batch. A finalized batch
// leaves the buffer at once and only its group id is remembered, for the TTL, so late
// parts stay out.
type MediaGroupBuffer struct {
	mu      sync.Mutex
	delay   time.Duration
	ttl     time.Duration
	batches map[int64]*pendingBatch
	done    map[groupKey]time.Time
	onReady func(chatID int64, batch MediaBatch)
	now     func() time.Time
}

func NewMediaGroupBuffer(delay, ttl time.Duration, onReady func(chatID int64, batch MediaBatch)) *MediaGroupBuffer {
	return &MediaGroupBuffer{
		delay:   delay,
		ttl:     ttl,
		batches: make(map[int64]*pendingBatch),
		done:    make(map[groupKey]time.Time),
		onReady: onReady,
		now:     time.Now,
	}
}

// Add buffers one album part. The first non-empty caption wins. Parts arriving after
// the batch was finalized are dropped.
func (b *MediaGroupBuffer) Add(chatID int64, groupID string, item MediaItem, caption string) {
	b.mu.Lock()

	if _, finished := b.done[groupKey{chatID, groupID}]; finished {
		b.mu.Unlock()
		return
	}

	batch, ok := b.batches[chatID]
	if ok && batch.GroupID != groupID {
		if batch.timer != nil {
			batch.timer.Stop()
		}
		ok = false
	}
	if !ok {
		batch = &pendingBatch{MediaBatch: MediaBatch{GroupID: groupID}}
		b.batches[chatID] = batch
	}

	batch.touched = b.now()
	if len(batch.Items) < MaxMediaGroupItems {
		batch.Items = append(batch.Items, item)
	}
	if batch.Caption == "" && caption != "" {
		batch.Caption = caption
	}

	if len(batch.Items) >= MaxMediaGroupItems {
		ready := b.finalizeLocked(chatID, batch)
		b.mu.Unlock()
		b.onReady(chatID, ready)
		return
	}

	if batch.timer == nil {
		batch.timer = time.AfterFunc(b.delay, func() { b.expire(chatID, groupID) })
	} else {
		batch.timer.Reset(b.delay)
	}
	b.mu.Unlock()
}

func (b *MediaGroupBuffer) expire(chatID int64, groupID string) {
	b.mu.Lock()
	batch, ok := b.batches[chatID]
	if !ok || batch.GroupID != groupID {
		b.mu.Unlock()
		return
	}
	ready := b.finalizeLocked(chatID, batch)
	b.mu.Unlock()
	b.onReady(chatID, ready)
}

// finalizeLocked takes the batch out of the buffer and marks its group done.
func (b *MediaGroupBuffer) finalizeLocked(chatID int64, batch *pendingBatch) MediaBatch {
	if batch.timer != nil {
		batch.timer.Stop()
	}
	delete(b.batches, chatID)
	b.done[groupKey{chatID, batch.GroupID}] = b.now()
	return batch.MediaBatch
}

// Drop forgets the chat's batch, e.g. when the flow is cancelled.
func (b *MediaGroupBuffer) Drop(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if batch, ok := b.batches[chatID]; ok {
		if batch.timer != nil {
			batch.timer.Stop()
		}
		delete(b.batches, chatID)
	}
}

// Sweep removes batches untouched for longer than the TTL and forgets finished group
// ids of the same age.
func (b *MediaGroupBuffer) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := b.now().Add(-b.ttl)
	removed := 0
	for chatID, batch := range b.batches {
		if batch.touched.Before(cutoff) {
			if batch.timer != nil {
				batch.timer.Stop()
			}
			delete(b.batches, chatID)
			removed++
		}
	}
	for key, at := range b.done {
		if at.Before(cutoff) {
			delete(b.done, key)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (b *MediaGroupBuffer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Sweep()
		}
	}
}

// Len counts albums still being collected.
func (b *MediaGroupBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batches)
}
