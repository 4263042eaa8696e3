package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/marcelsud/bot-gateway/registry"
	"github.com/marcelsud/bot-gateway/telegram"
)

/* Supervisor reconciles the routing table against the registry: starts
 * instances it has not seen, restarts instances whose config changed, stops
 * instances that disappeared. It also owns webhook registration with the
 * platform and process-wide shutdown of all pipelines.
 */

const (
	reconcileInterval = 30 * time.Second

	// Pending-update health checks run on every Nth reconcile tick.
	healthCheckEvery = 6

	// Bounded wait for a cancelled pipeline to confirm exit. Past the bound
	// the pipeline is logged and abandoned rather than hanging shutdown.
	stopRetries = 10
	stopDelay   = 500 * time.Millisecond

	// At most this many webhook registrations run against the platform at
	// once, matching its rate expectations.
	registerConcurrency = 5

	// Health checks for an instance are suppressed after this many
	// consecutive failures within the TTL window.
	maxCheckErrors = 3
)

// ErrInstanceBlocked is returned when a pipeline start is requested for a
// blocked instance. Blocked instances never get a route.
var ErrInstanceBlocked = errors.New("instance is blocked")

// RegistrySource is the slice of the registry client the supervisor needs.
type RegistrySource interface {
	List(ctx context.Context) ([]registry.InstanceConfig, error)
	Delete(ctx context.Context, id int64) error
}

// BotFactory creates a transport client bound to an instance token.
type BotFactory func(token string) telegram.BotAPI

// HandlerFactory builds the handler tree for an instance: the full feature
// set when it is approved, a minimal handler otherwise. The returned command
// list is published to the platform; nil means the menu is cleared.
type HandlerFactory func(bot telegram.BotAPI, inst registry.InstanceConfig) (Handler, []telegram.BotCommand)

// Supervisor drives instance lifecycle.
type Supervisor struct {
	table    *Table
	snapshot *registry.Snapshot
	source   RegistrySource
	bots     BotFactory
	handlers HandlerFactory
	logger   zerolog.Logger
	stats    *Stats

	// Public base URL webhooks are registered under: <base>/<token>/.
	webhookBase string

	mu    sync.Mutex
	known map[int64]registry.InstanceConfig

	initedMu sync.Mutex
	inited   map[int64]struct{}

	checkErrors *expirable.LRU[int64, int]
	regSem      *semaphore.Weighted
}

// NewSupervisor wires a supervisor over its collaborators.
func NewSupervisor(
	table *Table,
	snapshot *registry.Snapshot,
	source RegistrySource,
	bots BotFactory,
	handlers HandlerFactory,
	webhookBase string,
	stats *Stats,
	logger zerolog.Logger,
) *Supervisor {
	return &Supervisor{
		table:       table,
		snapshot:    snapshot,
		source:      source,
		bots:        bots,
		handlers:    handlers,
		logger:      logger,
		stats:       stats,
		webhookBase: webhookBase,
		known:       make(map[int64]registry.InstanceConfig),
		inited:      make(map[int64]struct{}),
		checkErrors: expirable.NewLRU[int64, int](128, nil, 10*time.Minute),
		regSem:      semaphore.NewWeighted(registerConcurrency),
	}
}

// Run reconciles on a fixed interval until ctx is cancelled, then stops all
// pipelines before returning.
func (s *Supervisor) Run(ctx context.Context) {
	s.Reconcile(ctx)

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			s.StopAll()
			return
		case <-ticker.C:
			tick++
			s.Reconcile(ctx)
			if tick%healthCheckEvery == 0 {
				s.checkPendingUpdates(ctx)
			}
		}
	}
}

// Reconcile fetches the registry and converges the routing table to it.
// Fetch failures leave the previous state untouched until the next tick.
func (s *Supervisor) Reconcile(ctx context.Context) {
	instances, err := s.source.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("registry fetch failed")
		return
	}

	s.snapshot.Replace(instances)

	desired := make(map[int64]registry.InstanceConfig, len(instances))
	for _, inst := range instances {
		desired[inst.ID] = inst
	}

	s.mu.Lock()
	known := make(map[int64]registry.InstanceConfig, len(s.known))
	for id, inst := range s.known {
		known[id] = inst
	}
	s.mu.Unlock()

	for id, inst := range desired {
		prev, seen := known[id]

		switch {
		case inst.Status == registry.Blocked:
			if seen {
				s.stopInstance(prev, "blocked")
			}
		case !seen:
			if _, err := s.EnsureRunning(ctx, inst); err != nil {
				s.logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("start failed, will retry next tick")
			}
		case !inst.Same(prev):
			// The old pipeline must fully stop before its replacement
			// starts, so no update is processed by two generations at once.
			s.stopInstance(prev, "config changed")
			if _, err := s.EnsureRunning(ctx, inst); err != nil {
				s.logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("restart failed, will retry next tick")
			}
		}
	}

	for id, prev := range known {
		if _, ok := desired[id]; !ok {
			s.stopInstance(prev, "removed from registry")
		}
	}

	s.registerWebhooks(ctx, instances)
}

// EnsureRunning returns the live entry for an instance, starting its
// pipeline if none is running. Safe for concurrent use; at most one pipeline
// is ever started per token.
func (s *Supervisor) EnsureRunning(ctx context.Context, inst registry.InstanceConfig) (*Entry, error) {
	if inst.Status == registry.Blocked {
		return nil, ErrInstanceBlocked
	}

	entry, err := s.table.InsertIfAbsent(inst.Token, func() (*Entry, error) {
		return s.startInstance(ctx, inst)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.known[inst.ID] = inst
	s.mu.Unlock()

	return entry, nil
}

// startInstance builds the instance's bot client and handler tree, publishes
// its command menu, and spawns the pipeline. A rejected token surfaces here
// as a command-publication error and aborts the start.
func (s *Supervisor) startInstance(ctx context.Context, inst registry.InstanceConfig) (*Entry, error) {
	bot := s.bots(inst.Token)
	handler, commands := s.handlers(bot, inst)

	var err error
	if len(commands) > 0 {
		err = bot.SetMyCommands(ctx, commands)
	} else {
		err = bot.DeleteMyCommands(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("publishing commands for bot %d: %w", inst.ID, err)
	}

	entry := startPipeline(context.Background(), handler, s.logger)

	s.logger.Info().
		Int64("bot_id", inst.ID).
		Str("status", inst.Status.String()).
		Str("cache", inst.Cache.String()).
		Str("generation", entry.Generation).
		Msg("pipeline started")
	s.stats.pipelineStarted()

	return entry, nil
}

// stopInstance cancels an instance's pipeline and waits, within bounds, for
// it to confirm exit. The entry is removed either way; a pipeline that never
// confirms is abandoned and accounted as a zombie.
func (s *Supervisor) stopInstance(inst registry.InstanceConfig, reason string) {
	s.mu.Lock()
	delete(s.known, inst.ID)
	s.mu.Unlock()

	s.initedMu.Lock()
	delete(s.inited, inst.ID)
	s.initedMu.Unlock()

	entry, ok := s.table.Get(inst.Token)
	if !ok {
		return
	}

	entry.Stop()
	confirmed := awaitStop(entry)
	s.table.Remove(inst.Token)

	if !confirmed {
		s.logger.Warn().
			Int64("bot_id", inst.ID).
			Str("generation", entry.Generation).
			Str("reason", reason).
			Msg("pipeline did not confirm stop, abandoning")
		s.stats.pipelineAbandoned()
		return
	}

	s.logger.Info().
		Int64("bot_id", inst.ID).
		Str("generation", entry.Generation).
		Str("reason", reason).
		Msg("pipeline stopped")
	s.stats.pipelineStopped()
}

// awaitStop waits for a cancelled pipeline up to stopRetries*stopDelay.
func awaitStop(entry *Entry) bool {
	for i := 0; i < stopRetries; i++ {
		select {
		case <-entry.Done():
			return true
		case <-time.After(stopDelay):
		}
	}
	return false
}

// StopAll stops every live pipeline concurrently and waits, within the same
// per-pipeline bounds, for each to confirm before returning.
func (s *Supervisor) StopAll() {
	tokens := s.table.Tokens()
	s.logger.Info().Int("pipelines", len(tokens)).Msg("stopping all pipelines")

	var g errgroup.Group
	for _, token := range tokens {
		entry, ok := s.table.Get(token)
		if !ok {
			continue
		}
		g.Go(func() error {
			entry.Stop()
			confirmed := awaitStop(entry)
			s.table.Remove(token)
			if !confirmed {
				s.logger.Warn().Str("generation", entry.Generation).Msg("pipeline did not confirm stop, abandoning")
				s.stats.pipelineAbandoned()
				return nil
			}
			s.stats.pipelineStopped()
			return nil
		})
	}
	g.Wait()

	s.mu.Lock()
	s.known = make(map[int64]registry.InstanceConfig)
	s.mu.Unlock()
}

// registerWebhooks points the platform at <base>/<token>/ for every instance
// not yet initialized, a bounded number at a time. Failures are retried on
// the next reconcile tick.
func (s *Supervisor) registerWebhooks(ctx context.Context, instances []registry.InstanceConfig) {
	var g errgroup.Group
	for _, inst := range instances {
		if inst.Status == registry.Blocked {
			continue
		}

		s.initedMu.Lock()
		_, done := s.inited[inst.ID]
		s.initedMu.Unlock()
		if done {
			continue
		}

		g.Go(func() error {
			if err := s.regSem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer s.regSem.Release(1)

			url := fmt.Sprintf("%s/%s/", s.webhookBase, inst.Token)
			if err := s.bots(inst.Token).SetWebhook(ctx, url); err != nil {
				s.logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("webhook registration failed")
				return nil
			}

			s.initedMu.Lock()
			s.inited[inst.ID] = struct{}{}
			s.initedMu.Unlock()

			s.logger.Info().Int64("bot_id", inst.ID).Msg("webhook registered")
			return nil
		})
	}
	g.Wait()
}

// checkPendingUpdates probes each known instance's webhook state and
// re-registers webhooks that report delivery errors. Instances whose token
// the platform rejects outright are deleted from the registry.
func (s *Supervisor) checkPendingUpdates(ctx context.Context) {
	s.mu.Lock()
	known := make([]registry.InstanceConfig, 0, len(s.known))
	for _, inst := range s.known {
		known = append(known, inst)
	}
	s.mu.Unlock()

	for _, inst := range known {
		errCount, _ := s.checkErrors.Get(inst.ID)
		if errCount >= maxCheckErrors {
			continue
		}

		bot := s.bots(inst.Token)
		info, err := bot.GetWebhookInfo(ctx)
		if err != nil {
			if apiErr, ok := err.(*telegram.APIError); ok && apiErr.Code == 401 {
				s.logger.Warn().Int64("bot_id", inst.ID).Msg("token rejected by platform, deleting instance")
				s.stopInstance(inst, "invalid token")
				s.snapshot.Forget(inst.Token)
				if err := s.source.Delete(ctx, inst.ID); err != nil {
					s.logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("registry delete failed")
				}
				continue
			}

			s.logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("webhook info check failed")
			s.checkErrors.Add(inst.ID, errCount+1)
			continue
		}

		if info.PendingUpdateCount == 0 {
			continue
		}

		if info.LastErrorMessage != "" {
			s.logger.Warn().
				Int64("bot_id", inst.ID).
				Str("last_error", info.LastErrorMessage).
				Msg("webhook reports delivery errors, re-registering")

			url := fmt.Sprintf("%s/%s/", s.webhookBase, inst.Token)
			if err := bot.SetWebhook(ctx, url); err != nil {
				s.logger.Error().Err(err).Int64("bot_id", inst.ID).Msg("webhook re-registration failed")
			}
		}
	}
}
