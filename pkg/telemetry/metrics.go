package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts names and describes an instrument
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an int64 OTel counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter on the service meter
func NewCounter(opts MetricOpts) (*Counter, error) {
	c, err := Meter().Int64Counter(opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Inc adds one
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps a float64 OTel histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogramWithBuckets creates a histogram with explicit bucket boundaries
func NewHistogramWithBuckets(opts MetricOpts, boundaries []float64) (*Histogram, error) {
	h, err := Meter().Float64Histogram(opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: h}, nil
}

// Record records one observation
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Attribute keys shared by spans and metrics
const (
	AttrEventID      = "event.id"
	AttrTicketID     = "ticket.id"
	AttrTicketNumber = "ticket.number"
	AttrTicketStatus = "ticket.status"
	AttrFromStatus   = "ticket.status.from"
	AttrToStatus     = "ticket.status.to"
	AttrStoreBackend = "store.backend"
)

func EventIDAttr(eventID string) attribute.KeyValue {
	return attribute.String(AttrEventID, eventID)
}

func TicketIDAttr(ticketID string) attribute.KeyValue {
	return attribute.String(AttrTicketID, ticketID)
}

func TicketNumberAttr(number int64) attribute.KeyValue {
	return attribute.Int64(AttrTicketNumber, number)
}

func TicketStatusAttr(status string) attribute.KeyValue {
	return attribute.String(AttrTicketStatus, status)
}

// TransitionAttrs describes a ticket status change
func TransitionAttrs(from, to string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrFromStatus, from),
		attribute.String(AttrToStatus, to),
	}
}

func StoreBackendAttr(backend string) attribute.KeyValue {
	return attribute.String(AttrStoreBackend, backend)
}
