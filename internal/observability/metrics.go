package observability

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports profile update and HTTP metrics. It satisfies
// memory.Observer. A nil observer records nothing.
type PrometheusObserver struct {
	mergeDuration   *prometheus.HistogramVec
	mergeErrors     *prometheus.CounterVec
	mergeConflicts  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusObserver registers the metrics under namespace on reg.
// Metrics already registered by an earlier observer are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "resume_memory"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		mergeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of profile update operations, oracle time included.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"operation"}),
		mergeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Profile update operations that saved nothing.",
		}, []string{"operation"}),
		mergeConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Profile saves rejected because the stored version moved.",
		}, []string{"operation"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	if err := register(reg, &o.mergeDuration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.mergeErrors); err != nil {
		return nil, err
	}
	if err := register(reg, &o.mergeConflicts); err != nil {
		return nil, err
	}
	if err := register(reg, &o.requestDuration); err != nil {
		return nil, err
	}
	return o, nil
}

// register adds c to reg, swapping in the existing collector when one with the
// same descriptor is already registered
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			*c = existing
			return nil
		}
	}
	return fmt.Errorf("register metric: %w", err)
}

// RecordMerge tracks the duration and outcome of one profile update
func (o *PrometheusObserver) RecordMerge(operation string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.mergeDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		o.mergeErrors.WithLabelValues(operation).Inc()
	}
}

// RecordConflict counts a rejected compare-and-swap save
func (o *PrometheusObserver) RecordConflict(operation string) {
	if o == nil {
		return
	}
	o.mergeConflicts.WithLabelValues(operation).Inc()
}

// RecordRequest tracks one HTTP request. route is the matched pattern, not the raw path.
func (o *PrometheusObserver) RecordRequest(method, route string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	o.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
