package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	// OTel meters and instruments
	meter              metric.Meter
	livePipelinesGauge metric.Int64ObservableGauge
	knownGauge         metric.Int64ObservableGauge
	abandonedGauge     metric.Int64ObservableGauge
	startedCounter     metric.Int64ObservableCounter
	stoppedCounter     metric.Int64ObservableCounter
	webhookCounter     metric.Int64ObservableCounter
	jobCounter         metric.Int64ObservableCounter
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"bot-gateway",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	// Live pipelines gauge
	oe.livePipelinesGauge, err = oe.meter.Int64ObservableGauge(
		"gateway.pipelines.live",
		metric.WithDescription("Number of routing entries currently serving updates"),
		metric.WithUnit("{pipelines}"),
		metric.WithInt64Callback(oe.observeLivePipelines),
	)
	if err != nil {
		return fmt.Errorf("creating live pipelines gauge: %w", err)
	}

	// Known instances gauge
	oe.knownGauge, err = oe.meter.Int64ObservableGauge(
		"gateway.instances.known",
		metric.WithDescription("Number of instances in the current registry snapshot"),
		metric.WithUnit("{instances}"),
		metric.WithInt64Callback(oe.observeKnownInstances),
	)
	if err != nil {
		return fmt.Errorf("creating known instances gauge: %w", err)
	}

	// Abandoned pipelines gauge
	oe.abandonedGauge, err = oe.meter.Int64ObservableGauge(
		"gateway.pipelines.abandoned",
		metric.WithDescription("Pipelines dropped after exhausting the cancel-await"),
		metric.WithUnit("{pipelines}"),
		metric.WithInt64Callback(oe.observeAbandoned),
	)
	if err != nil {
		return fmt.Errorf("creating abandoned pipelines gauge: %w", err)
	}

	// Pipeline start counter
	oe.startedCounter, err = oe.meter.Int64ObservableCounter(
		"gateway.pipelines.started",
		metric.WithDescription("Pipelines started since process start"),
		metric.WithUnit("{pipelines}"),
		metric.WithInt64Callback(oe.observeStarted),
	)
	if err != nil {
		return fmt.Errorf("creating started pipelines counter: %w", err)
	}

	// Pipeline stop counter
	oe.stoppedCounter, err = oe.meter.Int64ObservableCounter(
		"gateway.pipelines.stopped",
		metric.WithDescription("Pipelines that confirmed a clean stop"),
		metric.WithUnit("{pipelines}"),
		metric.WithInt64Callback(oe.observeStopped),
	)
	if err != nil {
		return fmt.Errorf("creating stopped pipelines counter: %w", err)
	}

	// Webhook outcome counter (per outcome)
	oe.webhookCounter, err = oe.meter.Int64ObservableCounter(
		"gateway.webhook.requests",
		metric.WithDescription("Webhook endpoint requests by outcome"),
		metric.WithUnit("{requests}"),
		metric.WithInt64Callback(oe.observeWebhookOutcomes),
	)
	if err != nil {
		return fmt.Errorf("creating webhook counter: %w", err)
	}

	// Archival job counter (per terminal result)
	oe.jobCounter, err = oe.meter.Int64ObservableCounter(
		"gateway.archive.jobs",
		metric.WithDescription("Archival jobs by terminal result"),
		metric.WithUnit("{jobs}"),
		metric.WithInt64Callback(oe.observeJobOutcomes),
	)
	if err != nil {
		return fmt.Errorf("creating job counter: %w", err)
	}

	return nil
}

// observeLivePipelines is a callback that reports the live pipeline count
func (oe *OTelExporter) observeLivePipelines(ctx context.Context, observer metric.Int64Observer) error {
	live, err := oe.collector.LivePipelines(ctx)
	if err != nil {
		return err
	}
	observer.Observe(live)
	return nil
}

// observeKnownInstances is a callback that reports the snapshot size
func (oe *OTelExporter) observeKnownInstances(ctx context.Context, observer metric.Int64Observer) error {
	known, err := oe.collector.KnownInstances(ctx)
	if err != nil {
		return err
	}
	observer.Observe(known)
	return nil
}

// observeAbandoned is a callback that reports abandoned pipelines
func (oe *OTelExporter) observeAbandoned(ctx context.Context, observer metric.Int64Observer) error {
	abandoned, err := oe.collector.AbandonedPipelines(ctx)
	if err != nil {
		return err
	}
	observer.Observe(abandoned)
	return nil
}

// observeStarted is a callback that reports the pipeline start count
func (oe *OTelExporter) observeStarted(ctx context.Context, observer metric.Int64Observer) error {
	started, err := oe.collector.PipelinesStarted(ctx)
	if err != nil {
		return err
	}
	observer.Observe(started)
	return nil
}

// observeStopped is a callback that reports the confirmed stop count
func (oe *OTelExporter) observeStopped(ctx context.Context, observer metric.Int64Observer) error {
	stopped, err := oe.collector.PipelinesStopped(ctx)
	if err != nil {
		return err
	}
	observer.Observe(stopped)
	return nil
}

// observeWebhookOutcomes is a callback that reports request counts by outcome
func (oe *OTelExporter) observeWebhookOutcomes(ctx context.Context, observer metric.Int64Observer) error {
	outcomes, err := oe.collector.WebhookOutcomes(ctx)
	if err != nil {
		return err
	}

	for outcome, count := range outcomes {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("webhook.outcome", outcome),
		))
	}

	return nil
}

// observeJobOutcomes is a callback that reports job counts by terminal result
func (oe *OTelExporter) observeJobOutcomes(ctx context.Context, observer metric.Int64Observer) error {
	outcomes, err := oe.collector.JobOutcomes(ctx)
	if err != nil {
		return err
	}

	for result, count := range outcomes {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("job.result", result),
		))
	}

	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
