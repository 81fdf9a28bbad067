package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrEthical07/credflow"
	"github.com/MrEthical07/credflow/internal/workers"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot credflow.MetricsSnapshot
	dropped  uint64
	pool     workers.Stats
}

func (f *fakeSource) MetricsSnapshot() credflow.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := credflow.MetricsSnapshot{
		Counters:   make(map[credflow.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[credflow.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *fakeSource) NotifyStats() workers.Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pool
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{
		snapshot: credflow.MetricsSnapshot{
			Counters: map[credflow.MetricID]uint64{
				credflow.MetricLoginSuccess: 3,
				credflow.MetricLoginLocked:  1,
			},
			Histograms: map[credflow.MetricID][]uint64{
				credflow.MetricValidateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
		pool:    workers.Stats{Queued: 4, CallerRan: 2},
	}

	exp, err := NewExporterFromSource(provider.Meter("credflow-test"), src)
	require.NoError(t, err)
	defer func() { require.NoError(t, exp.Close()) }()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.EqualValues(t, 3, sumOf(t, rm, "credflow_login_success_total"))
	require.EqualValues(t, 1, sumOf(t, rm, "credflow_login_locked_total"))
	require.EqualValues(t, 1, sumOf(t, rm, "credflow_audit_dropped_total"))
	require.EqualValues(t, 6, sumOf(t, rm, "credflow_notify_pool_tasks_total"))
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()

	_, err := NewExporterFromSource(provider.Meter("credflow-test"), nil)
	require.ErrorIs(t, err, ErrNilSource)
	_, err = NewExporterFromSource(nil, &fakeSource{})
	require.ErrorIs(t, err, ErrNilMeter)
	_, err = NewExporter(provider.Meter("credflow-test"), nil)
	require.ErrorIs(t, err, ErrNilSource)
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{
		snapshot: credflow.MetricsSnapshot{
			Counters: map[credflow.MetricID]uint64{
				credflow.MetricLoginSuccess: 1,
			},
			Histograms: map[credflow.MetricID][]uint64{
				credflow.MetricValidateLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporterFromSource(provider.Meter("credflow-test"), src)
	require.NoError(t, err)
	defer func() { require.NoError(t, exp.Close()) }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[credflow.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
