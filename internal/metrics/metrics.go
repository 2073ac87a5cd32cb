// Package metrics exposes Prometheus collectors for simulation runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agent_market"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	StepsTotal          prometheus.Counter
	SimulationsTotal    *prometheus.CounterVec
	OrdersTotal         *prometheus.CounterVec
	UnitsTraded         *prometheus.CounterVec
	AmbiguousTotal      prometheus.Counter
	LastPrice           prometheus.Gauge
	PriceClampsTotal    prometheus.Counter
	OracleDuration      *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration prometheus.Histogram
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "steps_total",
			Help:      "Simulation steps completed",
		}),
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulations_total",
			Help:      "Simulation runs by final status",
		}, []string{"status"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_total",
			Help:      "Trader turns by side and outcome",
		}, []string{"side", "outcome"}),
		UnitsTraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "units_traded_total",
			Help:      "Units bought or sold in accepted orders",
		}, []string{"side"}),
		AmbiguousTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "ambiguous_responses_total",
			Help:      "Oracle responses naming more than one option",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "last_price",
			Help:      "Most recently appended price",
		}),
		PriceClampsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "price_clamps_total",
			Help:      "Price updates raised to the floor",
		}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "decide_duration_seconds",
			Help:      "Oracle decision latency in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"oracle", "result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StepsTotal,
		m.SimulationsTotal,
		m.OrdersTotal,
		m.UnitsTraded,
		m.AmbiguousTotal,
		m.LastPrice,
		m.PriceClampsTotal,
		m.OracleDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a fresh registry holding m plus the Go runtime and process collectors.
func NewRegistry(m *Metrics) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	if m != nil {
		if err := m.Register(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveStep(price float64, clamped bool) {
	if m == nil {
		return
	}
	m.StepsTotal.Inc()
	m.LastPrice.Set(price)
	if clamped {
		m.PriceClampsTotal.Inc()
	}
}

// ObserveTurn counts one trader turn. units is added only for accepted orders.
func (m *Metrics) ObserveTurn(side, outcome string, units int, ambiguous bool) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(side, outcome).Inc()
	if outcome == "accepted" && units > 0 {
		m.UnitsTraded.WithLabelValues(side).Add(float64(units))
	}
	if ambiguous {
		m.AmbiguousTotal.Inc()
	}
}

func (m *Metrics) ObserveOracle(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OracleDuration.WithLabelValues(name, result).Observe(d.Seconds())
}

func (m *Metrics) ObserveSimulation(status string) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.Observe(d.Seconds())
}
