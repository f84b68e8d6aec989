package xlimit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameRequestsTotal 限流检查总数计数器
	metricNameRequestsTotal = "edgegate.limiter.requests.total"
	// metricNameDeniedTotal 被限流请求计数器
	metricNameDeniedTotal = "edgegate.limiter.denied.total"
	// metricNameFallbackTotal 降级次数计数器
	metricNameFallbackTotal = "edgegate.limiter.fallback.total"
	// metricNameCheckDuration 限流检查耗时直方图
	metricNameCheckDuration = "edgegate.limiter.check.duration"
)

// Metrics 限流指标收集器
type Metrics struct {
	requestsTotal metric.Int64Counter
	deniedTotal   metric.Int64Counter
	fallbackTotal metric.Int64Counter
	checkDuration metric.Float64Histogram
}

// NewMetrics 创建指标收集器
// 如果 meterProvider 为 nil，返回 nil（不收集指标）
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("edgegate/xlimit",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	requestsTotal, err := meter.Int64Counter(
		metricNameRequestsTotal,
		metric.WithDescription("Total rate limit checks"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	deniedTotal, err := meter.Int64Counter(
		metricNameDeniedTotal,
		metric.WithDescription("Requests denied by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	fallbackTotal, err := meter.Int64Counter(
		metricNameFallbackTotal,
		metric.WithDescription("Fallbacks to the local counter"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	checkDuration, err := meter.Float64Histogram(
		metricNameCheckDuration,
		metric.WithDescription("Rate limit check duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestsTotal: requestsTotal,
		deniedTotal:   deniedTotal,
		fallbackTotal: fallbackTotal,
		checkDuration: checkDuration,
	}, nil
}

// RecordCheck 记录一次限流检查
func (m *Metrics) RecordCheck(ctx context.Context, backendType, policy string, allowed bool, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("backend", backendType),
		attribute.String("policy", policy),
		attribute.Bool("allowed", allowed),
	)

	m.requestsTotal.Add(ctx, 1, attrs)
	if !allowed {
		m.deniedTotal.Add(ctx, 1, attrs)
	}
	m.checkDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordFallback 记录一次降级
// reason 必须是 classifyError 产出的低基数标签
func (m *Metrics) RecordFallback(ctx context.Context, strategy FallbackStrategy, reason string) {
	if m == nil {
		return
	}

	m.fallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.String("reason", reason),
	))
}
