package xlimit

import (
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectMetrics 收集当前指标快照
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(testContext(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	return rm
}

// findMetric 按名称查找指标
func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestMetricsRecordCheck(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(provider)
	if err != nil {
		t.Fatal(err)
	}

	ctx := testContext()
	metrics.RecordCheck(ctx, "distributed", "tight", true, 5*time.Millisecond)
	metrics.RecordCheck(ctx, "distributed", "tight", false, 3*time.Millisecond)
	metrics.RecordCheck(ctx, "local", "default", true, time.Millisecond)

	rm := collectMetrics(t, reader)

	t.Run("requests counter", func(t *testing.T) {
		m, ok := findMetric(rm, metricNameRequestsTotal)
		if !ok {
			t.Fatal("requests counter not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatalf("unexpected data type %T", m.Data)
		}
		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		if total != 3 {
			t.Fatalf("expected 3 checks recorded, got %d", total)
		}
	})

	t.Run("denied counter", func(t *testing.T) {
		m, ok := findMetric(rm, metricNameDeniedTotal)
		if !ok {
			t.Fatal("denied counter not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatalf("unexpected data type %T", m.Data)
		}
		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		if total != 1 {
			t.Fatalf("expected 1 denial recorded, got %d", total)
		}
	})

	t.Run("duration histogram", func(t *testing.T) {
		m, ok := findMetric(rm, metricNameCheckDuration)
		if !ok {
			t.Fatal("duration histogram not found")
		}
		hist, ok := m.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatalf("unexpected data type %T", m.Data)
		}
		var count uint64
		for _, dp := range hist.DataPoints {
			count += dp.Count
		}
		if count != 3 {
			t.Fatalf("expected 3 duration samples, got %d", count)
		}
	})
}

func TestMetricsRecordFallback(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(provider)
	if err != nil {
		t.Fatal(err)
	}

	metrics.RecordFallback(testContext(), FallbackLocal, "conn_refused")
	metrics.RecordFallback(testContext(), FallbackLocal, "timeout")

	rm := collectMetrics(t, reader)
	m, ok := findMetric(rm, metricNameFallbackTotal)
	if !ok {
		t.Fatal("fallback counter not found")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Fatalf("expected 2 fallbacks recorded, got %d", total)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	t.Run("nil provider yields nil metrics", func(t *testing.T) {
		metrics, err := NewMetrics(nil)
		if err != nil {
			t.Fatal(err)
		}
		if metrics != nil {
			t.Fatal("expected nil metrics for nil provider")
		}
	})

	t.Run("nil receiver does not panic", func(t *testing.T) {
		var metrics *Metrics
		metrics.RecordCheck(testContext(), "local", "default", true, time.Millisecond)
		metrics.RecordFallback(testContext(), FallbackLocal, "none")
	})
}
