// Package metrics exposes Prometheus collectors for the pager session.
//
// All recording methods are safe on a nil *Metrics, so components take
// an optional *Metrics without checks at every call site.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "dcare_pager_"

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultInvalid = "invalid"
)

// Metrics bundles the session metrics.
type Metrics struct {
	DatagramsTotal *prometheus.CounterVec
	AlertsTotal    *prometheus.CounterVec
	AcksTotal      prometheus.Counter
	Reconnects     prometheus.Counter
	SocketErrors   *prometheus.CounterVec
	SyncTotal      *prometheus.CounterVec
	LoginTotal     *prometheus.CounterVec
	ActiveAlarms   prometheus.Gauge
	PendingAlarms  prometheus.Gauge
	Connected      prometheus.Gauge
	ClockOffset    prometheus.Gauge
}

// New constructs unregistered collectors.
func New() *Metrics {
	return &Metrics{
		DatagramsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "datagrams_total",
				Help: "Datagrams exchanged with the server by direction and kind",
			},
			[]string{"direction", "kind"},
		),
		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Alert entries processed by outcome",
			},
			[]string{"action"},
		),
		AcksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "acks_total",
			Help: "Acknowledgements sent",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "reconnects_total",
			Help: "Socket re-creations after a fault",
		}),
		SocketErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "socket_errors_total",
				Help: "Socket faults by errno name",
			},
			[]string{"errno"},
		),
		SyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "full_sync_total",
				Help: "Full alarm list syncs by result",
			},
			[]string{"result"},
		),
		LoginTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_total",
				Help: "Login syncs by result",
			},
			[]string{"result"},
		),
		ActiveAlarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "active_alarms",
			Help: "Currently active alarms",
		}),
		PendingAlarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "pending_alarms",
			Help: "Alarms waiting for their escalation delay",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "connected",
			Help: "1 while the server link is connected",
		}),
		ClockOffset: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "clock_offset_seconds",
			Help: "Local minus server clock from the last full sync",
		}),
	}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is Register that panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.collectors()...)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DatagramsTotal,
		m.AlertsTotal,
		m.AcksTotal,
		m.Reconnects,
		m.SocketErrors,
		m.SyncTotal,
		m.LoginTotal,
		m.ActiveAlarms,
		m.PendingAlarms,
		m.Connected,
		m.ClockOffset,
	}
}

// Handler serves the collectors gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Datagram counts one datagram.
func (m *Metrics) Datagram(direction, kind string) {
	if m == nil {
		return
	}
	m.DatagramsTotal.WithLabelValues(direction, kind).Inc()
}

// Alert counts one alert outcome.
func (m *Metrics) Alert(action string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(action).Inc()
}

// Ack counts one acknowledgement.
func (m *Metrics) Ack() {
	if m == nil {
		return
	}
	m.AcksTotal.Inc()
}

// Reconnect counts one socket re-creation.
func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

// SocketError counts one socket fault.
func (m *Metrics) SocketError(errno string) {
	if m == nil {
		return
	}
	m.SocketErrors.WithLabelValues(errno).Inc()
}

// Sync counts one full sync.
func (m *Metrics) Sync(result string) {
	if m == nil {
		return
	}
	m.SyncTotal.WithLabelValues(result).Inc()
}

// Login counts one login sync.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginTotal.WithLabelValues(result).Inc()
}

// SetAlarms records the active and pending counts.
func (m *Metrics) SetAlarms(active, pending int) {
	if m == nil {
		return
	}
	m.ActiveAlarms.Set(float64(active))
	m.PendingAlarms.Set(float64(pending))
}

// SetConnected records the link state.
func (m *Metrics) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

// SetClockOffset records the clock offset in seconds.
func (m *Metrics) SetClockOffset(seconds float64) {
	if m == nil {
		return
	}
	m.ClockOffset.Set(seconds)
}
