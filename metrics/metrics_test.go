package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/bot-gateway/metrics"
)

type stubCollector struct {
	live      int64
	known     int64
	started   int64
	stopped   int64
	abandoned int64
	outcomes  map[string]int64
	jobs      map[string]int64

	err error
}

func (s *stubCollector) LivePipelines(context.Context) (int64, error) { return s.live, s.err }
func (s *stubCollector) KnownInstances(context.Context) (int64, error) {
	return s.known, s.err
}
func (s *stubCollector) PipelinesStarted(context.Context) (int64, error) { return s.started, s.err }
func (s *stubCollector) PipelinesStopped(context.Context) (int64, error) { return s.stopped, s.err }
func (s *stubCollector) AbandonedPipelines(context.Context) (int64, error) {
	return s.abandoned, s.err
}
func (s *stubCollector) WebhookOutcomes(context.Context) (map[string]int64, error) {
	return s.outcomes, s.err
}
func (s *stubCollector) JobOutcomes(context.Context) (map[string]int64, error) {
	return s.jobs, s.err
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	t.Run("success - snapshot carries every series", func(t *testing.T) {
		c := &stubCollector{
			live:      3,
			known:     5,
			started:   7,
			stopped:   4,
			abandoned: 1,
			outcomes:  map[string]int64{"accepted": 100, "not_found": 2},
			jobs:      map[string]int64{"delivered_inline": 9},
		}

		m, err := metrics.Collect(ctx, c)
		require.NoError(t, err)

		assert.Equal(t, int64(3), m.LivePipelines)
		assert.Equal(t, int64(5), m.KnownInstances)
		assert.Equal(t, int64(7), m.PipelinesStarted)
		assert.Equal(t, int64(4), m.PipelinesStopped)
		assert.Equal(t, int64(1), m.AbandonedPipelines)
		assert.Equal(t, int64(100), m.WebhookOutcomes["accepted"])
		assert.Equal(t, int64(9), m.JobOutcomes["delivered_inline"])
		assert.False(t, m.Timestamp.IsZero())
	})

	t.Run("collector failure yields an empty snapshot", func(t *testing.T) {
		c := &stubCollector{err: errors.New("gauge unavailable")}

		m, err := metrics.Collect(ctx, c)
		require.Error(t, err)
		assert.Zero(t, m)
	})
}
