package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/bot-gateway/telegram"
)

func newIdleEntry() *Entry {
	done := make(chan struct{})
	ch := make(chan *telegram.Update, 1)
	return &Entry{
		Generation: "test",
		Sender:     newUpdateSender(ch, done),
		cancel:     func() {},
		done:       done,
	}
}

func TestTableInsertIfAbsent(t *testing.T) {
	t.Run("success - concurrent inserts run the factory once", func(t *testing.T) {
		table := NewTable()

		var calls atomic.Int64
		factory := func() (*Entry, error) {
			calls.Add(1)
			return newIdleEntry(), nil
		}

		var wg sync.WaitGroup
		entries := make([]*Entry, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				entry, err := table.InsertIfAbsent("token-a", factory)
				assert.NoError(t, err)
				entries[i] = entry
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load())
		assert.Equal(t, 1, table.Len())
		for _, entry := range entries {
			assert.Same(t, entries[0], entry)
		}
	})

	t.Run("factory error leaves no entry behind", func(t *testing.T) {
		table := NewTable()

		_, err := table.InsertIfAbsent("token-a", func() (*Entry, error) {
			return nil, errors.New("token rejected")
		})
		require.Error(t, err)
		assert.Equal(t, 0, table.Len())

		// The next attempt runs the factory again.
		entry, err := table.InsertIfAbsent("token-a", func() (*Entry, error) {
			return newIdleEntry(), nil
		})
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})

	t.Run("tokens are not serialized against each other", func(t *testing.T) {
		table := NewTable()

		block := make(chan struct{})
		started := make(chan struct{})
		go func() {
			_, _ = table.InsertIfAbsent("token-slow", func() (*Entry, error) {
				close(started)
				<-block
				return newIdleEntry(), nil
			})
		}()
		<-started

		// A different token's creation must not wait for token-slow.
		finished := make(chan struct{})
		go func() {
			_, err := table.InsertIfAbsent("token-fast", func() (*Entry, error) {
				return newIdleEntry(), nil
			})
			assert.NoError(t, err)
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("creation for an unrelated token was blocked")
		}
		close(block)
	})

	t.Run("remove makes room for a fresh entry", func(t *testing.T) {
		table := NewTable()

		first, err := table.InsertIfAbsent("token-a", func() (*Entry, error) {
			return newIdleEntry(), nil
		})
		require.NoError(t, err)

		table.Remove("token-a")
		_, ok := table.Get("token-a")
		assert.False(t, ok)

		second, err := table.InsertIfAbsent("token-a", func() (*Entry, error) {
			return newIdleEntry(), nil
		})
		require.NoError(t, err)
		assert.NotSame(t, first, second)
	})
}

func TestUpdateSender(t *testing.T) {
	ctx := context.Background()

	t.Run("send after invalidate fails fast", func(t *testing.T) {
		s := newUpdateSender(make(chan<- *telegram.Update, 1), make(chan struct{}))
		s.invalidate()

		err := s.Send(ctx, &telegram.Update{UpdateID: 1})
		assert.ErrorIs(t, err, ErrPipelineClosed)
		assert.True(t, s.Closed())
	})

	t.Run("blocked send bails out on pipeline exit", func(t *testing.T) {
		done := make(chan struct{})
		close(done)

		// No consumer on the channel; only the done signal can release it.
		s := newUpdateSender(make(chan *telegram.Update), done)

		err := s.Send(ctx, &telegram.Update{UpdateID: 1})
		assert.ErrorIs(t, err, ErrPipelineClosed)
	})

	t.Run("blocked send honors context cancellation", func(t *testing.T) {
		s := newUpdateSender(make(chan *telegram.Update), make(chan struct{}))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := s.Send(cancelled, &telegram.Update{UpdateID: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
