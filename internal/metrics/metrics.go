// Package metrics provides Prometheus instrumentation for the chat client.
// Headless deployments (bots, room monitors) can expose it over HTTP; the
// interactive client only records.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts inbound frames, labeled by event name.
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchroom_client_events_total",
		Help: "Total number of inbound events received from the room server",
	}, []string{"event"})

	// CommandsTotal counts outbound frames, labeled by message type.
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchroom_client_commands_total",
		Help: "Total number of outbound messages sent to the room server",
	}, []string{"type"})

	// DecodeErrors counts inbound frames that could not be decoded.
	DecodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "watchroom_client_decode_errors_total",
		Help: "Inbound frames dropped because they could not be decoded",
	})

	// Connected is 1 while the transport is up.
	Connected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "watchroom_client_connected",
		Help: "Whether the client currently holds a live connection",
	})
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		CommandsTotal,
		DecodeErrors,
		Connected,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
