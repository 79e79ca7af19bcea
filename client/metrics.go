package client

import "github.com/prometheus/client_golang/prometheus"

// Routing destinations recorded by the frames_routed_total meter.
const (
	routeCall   = "call"
	routeAuth   = "auth"
	routeUpdate = "update"
)

// Metrics holds the Prometheus registry and runtime meters.
type Metrics struct {
	Registry        *prometheus.Registry
	FramesRouted    *prometheus.CounterVec
	CallsInFlight   prometheus.Gauge
	AuthTransitions *prometheus.CounterVec
}

// NewMetrics creates a custom Prometheus registry with the runtime meters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	framesRouted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tdlink_frames_routed_total",
		Help: "Inbound frames by routing destination.",
	}, []string{"route"})

	callsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tdlink_calls_in_flight",
		Help: "Calls awaiting a correlated response.",
	})

	authTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tdlink_auth_transitions_total",
		Help: "Authorization state frames processed, by state.",
	}, []string{"state"})

	reg.MustRegister(framesRouted, callsInFlight, authTransitions)

	return &Metrics{
		Registry:        reg,
		FramesRouted:    framesRouted,
		CallsInFlight:   callsInFlight,
		AuthTransitions: authTransitions,
	}
}

// Nil-safe recording helpers: a nil *Metrics disables instrumentation.

func (m *Metrics) routed(route string) {
	if m == nil {
		return
	}
	m.FramesRouted.WithLabelValues(route).Inc()
}

func (m *Metrics) callStarted() {
	if m == nil {
		return
	}
	m.CallsInFlight.Inc()
}

func (m *Metrics) callFinished() {
	if m == nil {
		return
	}
	m.CallsInFlight.Dec()
}

func (m *Metrics) authState(state string) {
	if m == nil {
		return
	}
	m.AuthTransitions.WithLabelValues(state).Inc()
}
