package metrics

import (
	"context"
	"time"
)

// Metrics is a point-in-time snapshot of the gateway's state.
type Metrics struct {
	// LivePipelines is the number of routing entries currently serving.
	LivePipelines int64 `json:"live_pipelines"`

	// KnownInstances is the size of the last registry snapshot.
	KnownInstances int64 `json:"known_instances"`

	// PipelinesStarted is the lifetime count of pipeline starts.
	PipelinesStarted int64 `json:"pipelines_started"`

	// PipelinesStopped is the lifetime count of confirmed pipeline stops.
	PipelinesStopped int64 `json:"pipelines_stopped"`

	// AbandonedPipelines counts pipelines that outlived the bounded
	// cancel-await and were dropped from the table while still draining.
	AbandonedPipelines int64 `json:"abandoned_pipelines"`

	// WebhookOutcomes maps webhook endpoint outcome to request count.
	WebhookOutcomes map[string]int64 `json:"webhook_outcomes"`

	// JobOutcomes maps archival job terminal result to count.
	JobOutcomes map[string]int64 `json:"job_outcomes"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector gathers gateway state for export.
type Collector interface {
	// LivePipelines returns the number of running pipelines.
	LivePipelines(ctx context.Context) (int64, error)

	// KnownInstances returns the instance count of the registry snapshot.
	KnownInstances(ctx context.Context) (int64, error)

	// PipelinesStarted returns the lifetime pipeline start count.
	PipelinesStarted(ctx context.Context) (int64, error)

	// PipelinesStopped returns the lifetime confirmed stop count.
	PipelinesStopped(ctx context.Context) (int64, error)

	// AbandonedPipelines returns the abandoned-pipeline total.
	AbandonedPipelines(ctx context.Context) (int64, error)

	// WebhookOutcomes returns request counts per webhook endpoint outcome.
	WebhookOutcomes(ctx context.Context) (map[string]int64, error)

	// JobOutcomes returns counts per archival job terminal result.
	JobOutcomes(ctx context.Context) (map[string]int64, error)
}

// Collect gathers one full snapshot from a collector.
func Collect(ctx context.Context, c Collector) (Metrics, error) {
	m := Metrics{Timestamp: time.Now()}

	var err error
	if m.LivePipelines, err = c.LivePipelines(ctx); err != nil {
		return Metrics{}, err
	}
	if m.KnownInstances, err = c.KnownInstances(ctx); err != nil {
		return Metrics{}, err
	}
	if m.PipelinesStarted, err = c.PipelinesStarted(ctx); err != nil {
		return Metrics{}, err
	}
	if m.PipelinesStopped, err = c.PipelinesStopped(ctx); err != nil {
		return Metrics{}, err
	}
	if m.AbandonedPipelines, err = c.AbandonedPipelines(ctx); err != nil {
		return Metrics{}, err
	}
	if m.WebhookOutcomes, err = c.WebhookOutcomes(ctx); err != nil {
		return Metrics{}, err
	}
	if m.JobOutcomes, err = c.JobOutcomes(ctx); err != nil {
		return Metrics{}, err
	}
	return m, nil
}
