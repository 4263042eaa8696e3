package gateway

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/marcelsud/bot-gateway/registry"
)

/* Stats aggregates the gateway's observable state for the metrics exporter.
 * Counters are monotonic; gauges are read live from the table and snapshot.
 */

// Webhook routing outcomes recorded per delivery attempt.
const (
	OutcomeAccepted    = "accepted"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
)

// Stats tracks pipeline lifecycle and routing outcome counts.
type Stats struct {
	table    *Table
	snapshot *registry.Snapshot

	started   atomic.Int64
	stopped   atomic.Int64
	abandoned atomic.Int64

	mu       sync.Mutex
	outcomes map[string]int64
	jobs     map[string]int64
}

// NewStats creates stats over the given table and registry snapshot.
func NewStats(table *Table, snapshot *registry.Snapshot) *Stats {
	return &Stats{
		table:    table,
		snapshot: snapshot,
		outcomes: make(map[string]int64),
		jobs:     make(map[string]int64),
	}
}

func (s *Stats) pipelineStarted()   { s.started.Add(1) }
func (s *Stats) pipelineStopped()   { s.stopped.Add(1) }
func (s *Stats) pipelineAbandoned() { s.abandoned.Add(1) }

// RecordOutcome counts one webhook delivery by routing outcome.
func (s *Stats) RecordOutcome(outcome string) {
	s.mu.Lock()
	s.outcomes[outcome]++
	s.mu.Unlock()
}

// RecordJob counts one archival job by terminal result.
func (s *Stats) RecordJob(result string) {
	s.mu.Lock()
	s.jobs[result]++
	s.mu.Unlock()
}

// PipelinesStarted reports the lifetime count of pipeline starts.
func (s *Stats) PipelinesStarted(ctx context.Context) (int64, error) {
	return s.started.Load(), nil
}

// PipelinesStopped reports the lifetime count of confirmed pipeline stops.
func (s *Stats) PipelinesStopped(ctx context.Context) (int64, error) {
	return s.stopped.Load(), nil
}

// LivePipelines reports the number of routed pipelines.
func (s *Stats) LivePipelines(ctx context.Context) (int64, error) {
	return int64(s.table.Len()), nil
}

// KnownInstances reports the registry snapshot size.
func (s *Stats) KnownInstances(ctx context.Context) (int64, error) {
	return int64(s.snapshot.Len()), nil
}

// AbandonedPipelines reports pipelines that never confirmed cancellation.
func (s *Stats) AbandonedPipelines(ctx context.Context) (int64, error) {
	return s.abandoned.Load(), nil
}

// WebhookOutcomes returns delivery counts keyed by routing outcome.
func (s *Stats) WebhookOutcomes(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out, nil
}

// JobOutcomes returns archival job counts keyed by terminal result.
func (s *Stats) JobOutcomes(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.jobs))
	for k, v := range s.jobs {
		out[k] = v
	}
	return out, nil
}
