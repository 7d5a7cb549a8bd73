package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/prohmpiriya/take-a-number/pkg/telemetry"
)

// queueMetrics records queue activity; instruments that failed to register stay nil
type queueMetrics struct {
	ticketsIssued  *telemetry.Counter
	transitions    *telemetry.Counter
	eventsCreated  *telemetry.Counter
	allocationTime *telemetry.Histogram
	backend        attribute.KeyValue
}

func newQueueMetrics(backend string) *queueMetrics {
	m := &queueMetrics{backend: telemetry.StoreBackendAttr(backend)}

	m.ticketsIssued, _ = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "queue_tickets_issued_total",
		Description: "Number of tickets issued",
		Unit:        "1",
	})
	m.transitions, _ = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "queue_ticket_transitions_total",
		Description: "Number of ticket status changes",
		Unit:        "1",
	})
	m.eventsCreated, _ = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "queue_events_created_total",
		Description: "Number of events created",
		Unit:        "1",
	})
	m.allocationTime, _ = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "queue_counter_allocation_ms",
		Description: "Time to allocate a number and insert the ticket",
		Unit:        "ms",
	}, []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500})

	return m
}

func (m *queueMetrics) ticketIssued(ctx context.Context, eventID string, elapsedMs float64) {
	if m.ticketsIssued != nil {
		m.ticketsIssued.Inc(ctx, m.backend, telemetry.EventIDAttr(eventID))
	}
	if m.allocationTime != nil {
		m.allocationTime.Record(ctx, elapsedMs, m.backend)
	}
}

func (m *queueMetrics) transition(ctx context.Context, from, to string) {
	if m.transitions != nil {
		m.transitions.Inc(ctx, telemetry.TransitionAttrs(from, to)...)
	}
}

func (m *queueMetrics) eventCreated(ctx context.Context) {
	if m.eventsCreated != nil {
		m.eventsCreated.Inc(ctx, m.backend)
	}
}
