package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "promflow"

type collector struct {
	registry          *prometheus.Registry
	ticks             *prometheus.CounterVec
	eventsEmitted     *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	dispatchFailures  *prometheus.CounterVec
	prometheusHandler http.Handler
}

// NewCollector creates the self instrumentation collector backed by its own registry
func NewCollector() (*collector, error) {
	c := &collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trigger_ticks_total",
			Help:      "Number of trigger ticks, partitioned by outcome.",
		}, []string{"trigger", "outcome"}),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Number of trigger events handed to the emitter.",
		}, []string{"trigger"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of the outgoing HTTP calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		dispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failures_total",
			Help:      "Number of outgoing HTTP calls that failed.",
		}, []string{"path"}),
	}

	toRegister := []prometheus.Collector{
		c.ticks,
		c.eventsEmitted,
		c.dispatchDuration,
		c.dispatchFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, col := range toRegister {
		err := c.registry.Register(col)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	c.prometheusHandler = promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})

	return c, nil
}

// ObserveDispatch records the duration of an outgoing call and whether it failed
func (c *collector) ObserveDispatch(path string, duration time.Duration, err error) {
	c.dispatchDuration.WithLabelValues(path).Observe(duration.Seconds())
	if err != nil {
		c.dispatchFailures.WithLabelValues(path).Inc()
	}
}

// ObserveTick counts one trigger tick with its outcome
func (c *collector) ObserveTick(triggerID string, outcome string) {
	c.ticks.WithLabelValues(triggerID, outcome).Inc()
}

// ObserveEmitted counts one event handed to the emitter
func (c *collector) ObserveEmitted(triggerID string) {
	c.eventsEmitted.WithLabelValues(triggerID).Inc()
}

// Handler returns the HTTP handler exposing the registry in the exposition format
func (c *collector) Handler() http.Handler {
	return c.prometheusHandler
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *collector) IsInterfaceNil() bool {
	return c == nil
}
