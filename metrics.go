package campus

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for domain activity.
type Metrics struct {
	activity      *prometheus.CounterVec
	registrations *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		activity: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "activity_events_total",
			Help:      "Activity events recorded, by event type",
		}, []string{"event"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "registration_attempts_total",
			Help:      "Event registration attempts, by outcome",
		}, []string{"outcome"}),
	}
}

// Record implements ActivitySink.
func (m *Metrics) Record(_ context.Context, event ActivityEvent) error {
	m.activity.WithLabelValues(string(event.EventType)).Inc()

	switch event.EventType {
	case ActivityEventRegistered:
		m.registrations.WithLabelValues("created").Inc()
	case ActivityEventRegistrationBlocked:
		outcome, _ := event.Metadata["reason"].(string)
		if outcome == "" {
			outcome = "blocked"
		}
		m.registrations.WithLabelValues(outcome).Inc()
	}
	return nil
}

var _ ActivitySink = (*Metrics)(nil)
