// Package event carries the domain events the member store emits.
//
// Events are a synchronous side channel: the service records them after the
// underlying write commits and before it returns, so an observer that sees
// the response has also seen the event. They are not a delivery queue — the
// recorders here log and count; a broker can be added behind the same
// interface.
package event

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Event names emitted by the member store.
const (
	MemberAdded   = "member_added"
	MemberUpdated = "member_updated"
	MemberRemoved = "member_removed"
)

// Event is one domain event. OwnerID and MemberID are the full payload —
// no member field data leaves through this channel.
type Event struct {
	Name     string
	OwnerID  string
	MemberID string
}

// Recorder observes domain events. Record must not block on external I/O;
// it runs inline with the request.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// LogRecorder writes each event as a structured log line.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a LogRecorder.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, e Event) {
	r.logger.Info("domain event",
		slog.String("event", e.Name),
		slog.String("ownerID", e.OwnerID),
		slog.String("memberID", e.MemberID),
	)
}

// MetricsRecorder counts events per name in a prometheus counter, exposed
// on /metrics.
type MetricsRecorder struct {
	events *prometheus.CounterVec
}

// NewMetricsRecorder creates a MetricsRecorder and registers its counter
// with reg.
func NewMetricsRecorder(reg prometheus.Registerer) *MetricsRecorder {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caretrack_member_events_total",
			Help: "Member domain events emitted, by event name.",
		},
		[]string{"event"},
	)
	reg.MustRegister(events)
	return &MetricsRecorder{events: events}
}

func (r *MetricsRecorder) Record(_ context.Context, e Event) {
	r.events.WithLabelValues(e.Name).Inc()
}

// MultiRecorder fans one event out to several recorders in order.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, e Event) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}
