package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marcelsud/bot-gateway/telegram"
)

/* One pipeline per live instance: a single consumer draining the instance's
 * update channel through its handler tree. Per-token ordering follows from
 * the single channel and single consumer.
 */

// Handler processes one inbound update to completion.
type Handler interface {
	Handle(ctx context.Context, update *telegram.Update) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, update *telegram.Update) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, update *telegram.Update) error {
	return f(ctx, update)
}

/* Entry is the live handle for a running pipeline: its cancellation plus the
 * inbound sender. The sender is invalidated (but the entry not removed) when
 * the pipeline exits, so lookups racing a shutdown observe the exit.
 */
type Entry struct {
	// Generation correlates the start/stop log lines of one pipeline run.
	Generation string

	Sender *UpdateSender

	cancel context.CancelFunc
	done   chan struct{}
}

// Stop signals the pipeline to exit. Safe to call more than once.
func (e *Entry) Stop() {
	e.cancel()
}

// Done is closed once the pipeline has fully exited.
func (e *Entry) Done() <-chan struct{} {
	return e.done
}

// pipelineQueueSize bounds in-flight updates per instance. Telegram retries
// rejected deliveries, so overflow only slows the producer, never drops.
const pipelineQueueSize = 128

// startPipeline spawns the processing loop for one instance and returns its
// live entry. The loop drains updates until cancellation, then invalidates
// the entry's sender and signals done.
func startPipeline(parent context.Context, handler Handler, logger zerolog.Logger) *Entry {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan *telegram.Update, pipelineQueueSize)
	done := make(chan struct{})

	entry := &Entry{
		Generation: uuid.New().String(),
		Sender:     newUpdateSender(ch, done),
		cancel:     cancel,
		done:       done,
	}

	go func() {
		defer close(done)
		defer entry.Sender.invalidate()

		for {
			select {
			case <-ctx.Done():
				return
			case update := <-ch:
				// Handler errors are the instance's own business; the
				// control plane only records them.
				if err := handler.Handle(ctx, update); err != nil {
					logger.Error().
						Err(err).
						Str("generation", entry.Generation).
						Int64("update_id", update.UpdateID).
						Msg("handler failed")
				}
			}
		}
	}()

	return entry
}
