package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InvocationObserver exports per-function invocation metrics to Prometheus.
type InvocationObserver struct {
	duration    *prometheus.HistogramVec
	invocations *prometheus.CounterVec
}

// NewInvocationObserver registers the invocation collectors on reg.
func NewInvocationObserver(namespace string, reg prometheus.Registerer) (*InvocationObserver, error) {
	if namespace == "" {
		namespace = "bucket_gateway"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &InvocationObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Latency of bucket function invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Count of bucket function invocations by response status.",
		}, []string{"function", "status"}),
	}

	if err := register(reg, &observer.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &observer.invocations); err != nil {
		return nil, err
	}
	return observer, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector *T) error {
	if err := reg.Register(*collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				*collector = existing
				return nil
			}
		}
		return fmt.Errorf("register invocation metric: %w", err)
	}
	return nil
}

// RecordInvocation tracks latency and the response status of one invocation.
func (o *InvocationObserver) RecordInvocation(name string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(name).Observe(duration.Seconds())
	o.invocations.WithLabelValues(name, strconv.Itoa(status)).Inc()
}
