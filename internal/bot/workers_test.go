package bot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := newDispatcher(3, 16, zap.NewNop())
	d.start(context.Background())

	var mu sync.Mutex
	seen := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, chatID := range []int64{1, 2, 7, -1001} {
			n, chat := i, chatID
			require.True(t, d.submit(chat, func(context.Context) {
				mu.Lock()
				seen[chat] = append(seen[chat], n)
				mu.Unlock()
			}))
		}
	}
	d.stop()

	for chatID, got := range seen {
		require.Len(t, got, 50, "chat %d", chatID)
		for i, n := range got {
			assert.Equal(t, i, n, "chat %d", chatID)
		}
	}
	assert.Len(t, seen, 4)
}

func TestDispatcherSurvivesPanic(t *testing.T) {
	d := newDispatcher(1, 4, zap.NewNop())
	d.start(context.Background())

	ran := false
	d.submit(5, func(context.Context) { panic("boom") })
	d.submit(5, func(context.Context) { ran = true })
	d.stop()

	assert.True(t, ran)
}

func TestDispatcherRejectsAfterStop(t *testing.T) {
	d := newDispatcher(2, 1, zap.NewNop())
	d.start(context.Background())
	d.stop()
	d.stop()

	assert.False(t, d.submit(1, func(context.Context) {}))
}
