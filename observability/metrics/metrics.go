package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Results recorded by ObserveRequest.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

type Monitoring struct {
	Handler    *http.ServeMux
	Prometheus *prometheus.Registry
	Remoting   *Remoting
	health     healthcheck.Handler
}

// New - Monitoring endpoints
func New() (*Monitoring, error) {
	monitoring := &Monitoring{}

	err := monitoring.SetPrometheus()
	if err != nil {
		return nil, err
	}

	monitoring.Remoting, err = NewRemoting(monitoring.Prometheus)
	if err != nil {
		return nil, err
	}

	monitoring.Handler = monitoring.SetHandler()

	return monitoring, nil
}

// SetHandler - Create a "common" handler for metrics
func (m *Monitoring) SetHandler() *http.ServeMux {
	handler := http.NewServeMux()

	// Expose prometheus metrics on /metrics
	handler.Handle("/metrics", promhttp.HandlerFor(
		m.Prometheus,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	))

	// The health check related metrics will be prefixed with the provided namespace
	m.health = healthcheck.NewMetricsHandler(m.Prometheus, "remoting")

	handler.HandleFunc("/live", m.health.LiveEndpoint)
	handler.HandleFunc("/ready", m.health.ReadyEndpoint)

	return handler
}

// AddReadinessCheck registers a check served on /ready.
func (m *Monitoring) AddReadinessCheck(name string, check healthcheck.Check) {
	m.health.AddReadinessCheck(name, check)
}

// AddLivenessCheck registers a check served on /live.
func (m *Monitoring) AddLivenessCheck(name string, check healthcheck.Check) {
	m.health.AddLivenessCheck(name, check)
}

// SetPrometheus - Create a new Prometheus registry
func (m *Monitoring) SetPrometheus() error {
	m.Prometheus = prometheus.NewRegistry()

	return m.Prometheus.Register(collectors.NewBuildInfoCollector())
}

// Remoting holds the collectors of the remoting client. A nil *Remoting records nothing.
type Remoting struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	connections prometheus.Gauge
	inbound     *prometheus.CounterVec
}

func NewRemoting(reg prometheus.Registerer) (*Remoting, error) {
	r := &Remoting{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remoting_requests_total",
			Help: "Remoting requests sent, by request code and result.",
		}, []string{"code", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "remoting_request_duration_seconds",
			Help:    "Latency of synchronous remoting requests.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.3, 0.6, 1, 3, 6, 10},
		}, []string{"code"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "remoting_connections",
			Help: "Open remoting connections.",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remoting_inbound_requests_total",
			Help: "Requests received from brokers, by request code.",
		}, []string{"code"}),
	}

	for _, collector := range []prometheus.Collector{r.requests, r.duration, r.connections, r.inbound} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Remoting) ObserveRequest(code int32, result string, elapsed time.Duration) {
	if r == nil {
		return
	}

	label := strconv.FormatInt(int64(code), 10)

	r.requests.WithLabelValues(label, result).Inc()
	r.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (r *Remoting) ObserveInbound(code int32) {
	if r == nil {
		return
	}

	r.inbound.WithLabelValues(strconv.FormatInt(int64(code), 10)).Inc()
}

func (r *Remoting) ConnectionOpened() {
	if r != nil {
		r.connections.Inc()
	}
}

func (r *Remoting) ConnectionClosed() {
	if r != nil {
		r.connections.Dec()
	}
}
