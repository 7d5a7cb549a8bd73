package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func inMemory(t *testing.T) (*tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	UseProviders(tp, mp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
		_, _ = Init(context.Background(), nil)
	})
	return recorder, reader
}

func TestInit_Disabled(t *testing.T) {
	tel, err := Init(context.Background(), &Config{Enabled: false, ServiceName: "queue"})
	require.NoError(t, err)
	require.NotNil(t, tel)
	assert.Same(t, tel, Get())
	assert.NoError(t, Shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsSampled())
}

func TestInit_Nil(t *testing.T) {
	tel, err := Init(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, tel)
	assert.NotNil(t, Meter())
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{}).withDefaults()
	assert.Equal(t, 1.0, cfg.SampleRatio)
	assert.Positive(t, cfg.MetricInterval)

	cfg = (&Config{SampleRatio: 0.25}).withDefaults()
	assert.Equal(t, 0.25, cfg.SampleRatio)
}

func TestStartSpanAndFailSpan(t *testing.T) {
	recorder, _ := inMemory(t)

	_, span := StartSpan(context.Background(), "handler.ticket.patch")
	span.SetAttributes(TicketIDAttr("t-1"), TicketStatusAttr("done"))
	FailSpan(span, errors.New("cannot move"), "invalid transition")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "handler.ticket.patch", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "invalid transition", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestCounterAndHistogram(t *testing.T) {
	_, reader := inMemory(t)
	ctx := context.Background()

	counter, err := NewCounter(MetricOpts{Name: "queue_tickets_issued_total", Unit: "1"})
	require.NoError(t, err)
	hist, err := NewHistogramWithBuckets(MetricOpts{Name: "queue_counter_allocation_ms", Unit: "ms"}, []float64{1, 10})
	require.NoError(t, err)

	counter.Inc(ctx, EventIDAttr("e-1"))
	counter.Inc(ctx, EventIDAttr("e-1"))
	hist.Record(ctx, 4, StoreBackendAttr("memory"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	sum, ok := byName["queue_tickets_issued_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	h, ok := byName["queue_counter_allocation_ms"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, []float64{1, 10}, h.DataPoints[0].Bounds)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
}

func TestTransitionAttrs(t *testing.T) {
	attrs := TransitionAttrs("waiting", "done")
	require.Len(t, attrs, 2)
	assert.Equal(t, AttrFromStatus, string(attrs[0].Key))
	assert.Equal(t, "waiting", attrs[0].Value.AsString())
	assert.Equal(t, AttrToStatus, string(attrs[1].Key))
	assert.Equal(t, "done", attrs[1].Value.AsString())
	assert.Equal(t, int64(7), TicketNumberAttr(7).Value.AsInt64())
}
