package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/marcelsud/bot-gateway/gateway"
	"github.com/marcelsud/bot-gateway/registry"
	"github.com/marcelsud/bot-gateway/telegram"
)

/* The webhook endpoint routes platform deliveries to per-instance pipelines.
 * Response codes steer the platform's own retry machinery: 404 is permanent
 * (unknown or blocked token), 503 asks for a retry later, 200 acknowledges,
 * including malformed bodies, which must never look like delivery failures
 * or the platform would retry them forever.
 */

// InstanceStarter lazily starts a pipeline for a registered instance, so a
// freshly registered bot is reachable before the next reconcile tick.
type InstanceStarter interface {
	EnsureRunning(ctx context.Context, inst registry.InstanceConfig) (*gateway.Entry, error)
}

// postUpdate handles POST /{token}/
func postUpdate(
	logger zerolog.Logger,
	table *gateway.Table,
	snapshot *registry.Snapshot,
	starter InstanceStarter,
	stats *gateway.Stats,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		entry, ok := table.Get(token)
		if !ok {
			inst, known := snapshot.Lookup(token)
			if !known {
				stats.RecordOutcome(gateway.OutcomeNotFound)
				http.Error(w, "unknown instance", http.StatusNotFound)
				return
			}

			started, err := starter.EnsureRunning(r.Context(), inst)
			if errors.Is(err, gateway.ErrInstanceBlocked) {
				// A blocked instance is a permanent outcome, same as an
				// unknown token; the platform must stop retrying.
				stats.RecordOutcome(gateway.OutcomeNotFound)
				http.Error(w, "unknown instance", http.StatusNotFound)
				return
			}
			if err != nil {
				logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("lazy start failed")
				stats.RecordOutcome(gateway.OutcomeUnavailable)
				http.Error(w, "instance unavailable", http.StatusServiceUnavailable)
				return
			}
			entry = started
		}

		// The pipeline may have exited between lookup and now; a stale
		// entry is removed so the platform's retry lands on a fresh start.
		if entry.Sender.Closed() {
			table.Remove(token)
			stats.RecordOutcome(gateway.OutcomeUnavailable)
			http.Error(w, "instance unavailable", http.StatusServiceUnavailable)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		var update telegram.Update
		if err := json.Unmarshal(body, &update); err != nil {
			logger.Warn().Err(err).Msg("discarding malformed update")
			stats.RecordOutcome(gateway.OutcomeMalformed)
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := entry.Sender.Send(r.Context(), &update); err != nil {
			table.Remove(token)
			stats.RecordOutcome(gateway.OutcomeUnavailable)
			http.Error(w, "instance unavailable", http.StatusServiceUnavailable)
			return
		}

		stats.RecordOutcome(gateway.OutcomeAccepted)
		w.WriteHeader(http.StatusOK)
	})
}
