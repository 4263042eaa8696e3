package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/marcelsud/bot-gateway/telegram"
)

// ErrPipelineClosed is returned when an update is sent to a pipeline that
// has already exited.
var ErrPipelineClosed = errors.New("pipeline closed")

/* UpdateSender is the inbound side of a pipeline's update channel.
 * Once the pipeline exits the sender is invalidated, so webhook deliveries
 * racing a shutdown fail fast instead of queueing into a dead pipeline.
 */
type UpdateSender struct {
	mu sync.RWMutex
	ch chan<- *telegram.Update // nil once invalidated

	// closed when the owning pipeline exits; lets a blocked send bail out
	done <-chan struct{}
}

func newUpdateSender(ch chan<- *telegram.Update, done <-chan struct{}) *UpdateSender {
	return &UpdateSender{ch: ch, done: done}
}

// Send enqueues an update for the pipeline, preserving arrival order.
// Returns ErrPipelineClosed if the pipeline has exited.
func (s *UpdateSender) Send(ctx context.Context, update *telegram.Update) error {
	s.mu.RLock()
	ch := s.ch
	s.mu.RUnlock()

	if ch == nil {
		return ErrPipelineClosed
	}

	select {
	case ch <- update:
		return nil
	case <-s.done:
		return ErrPipelineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invalidate detaches the channel. The channel itself is never closed; the
// pipeline's done signal is the authoritative exit marker.
func (s *UpdateSender) invalidate() {
	s.mu.Lock()
	s.ch = nil
	s.mu.Unlock()
}

// Closed reports whether the sender has been invalidated.
func (s *UpdateSender) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ch == nil
}
