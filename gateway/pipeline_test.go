package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/bot-gateway/telegram"
)

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("success - updates are handled in arrival order", func(t *testing.T) {
		var mu sync.Mutex
		var seen []int64
		handler := HandlerFunc(func(_ context.Context, update *telegram.Update) error {
			mu.Lock()
			seen = append(seen, update.UpdateID)
			mu.Unlock()
			return nil
		})

		entry := startPipeline(ctx, handler, zerolog.Nop())
		defer entry.Stop()

		for id := int64(1); id <= 3; id++ {
			require.NoError(t, entry.Sender.Send(ctx, &telegram.Update{UpdateID: id}))
		}

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(seen) == 3
		}, 2*time.Second, 5*time.Millisecond)

		mu.Lock()
		assert.Equal(t, []int64{1, 2, 3}, seen)
		mu.Unlock()
	})

	t.Run("stop invalidates the sender and signals done", func(t *testing.T) {
		handler := HandlerFunc(func(context.Context, *telegram.Update) error { return nil })
		entry := startPipeline(ctx, handler, zerolog.Nop())

		entry.Stop()

		select {
		case <-entry.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("pipeline did not confirm exit")
		}

		assert.True(t, entry.Sender.Closed())
		err := entry.Sender.Send(ctx, &telegram.Update{UpdateID: 1})
		assert.ErrorIs(t, err, ErrPipelineClosed)
	})

	t.Run("handler errors do not kill the pipeline", func(t *testing.T) {
		var mu sync.Mutex
		var handled int
		handler := HandlerFunc(func(context.Context, *telegram.Update) error {
			mu.Lock()
			handled++
			mu.Unlock()
			return assert.AnError
		})

		entry := startPipeline(ctx, handler, zerolog.Nop())
		defer entry.Stop()

		require.NoError(t, entry.Sender.Send(ctx, &telegram.Update{UpdateID: 1}))
		require.NoError(t, entry.Sender.Send(ctx, &telegram.Update{UpdateID: 2}))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return handled == 2
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("parent cancellation drains the pipeline", func(t *testing.T) {
		parent, cancel := context.WithCancel(ctx)
		handler := HandlerFunc(func(context.Context, *telegram.Update) error { return nil })
		entry := startPipeline(parent, handler, zerolog.Nop())

		cancel()

		select {
		case <-entry.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("pipeline did not exit on parent cancellation")
		}
	})
}
