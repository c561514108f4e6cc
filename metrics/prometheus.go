// Package metrics exports LeadTable operation counters and latency
// histograms through a Prometheus registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-leadtable/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultLabels are the tag keys promoted to labels. Other tags are dropped
// so every series of a metric carries the same label set.
var DefaultLabels = []string{"operation", "action", "status", "layer", "topic"}

var DefaultDurationBuckets = prometheus.ExponentialBuckets(5, 2, 12)

type Recorder struct {
	registry   *prometheus.Registry
	labels     []string
	buckets    []float64
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

type Option func(*Recorder)

func WithLabels(labels ...string) Option {
	return func(r *Recorder) {
		cleaned := make([]string, 0, len(labels))
		for _, label := range labels {
			if label = sanitizeName(label); label != "" {
				cleaned = append(cleaned, label)
			}
		}
		if len(cleaned) > 0 {
			r.labels = cleaned
		}
	}
}

func WithBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// NewRecorder registers collectors on registry, or on a fresh registry when
// nil.
func NewRecorder(registry *prometheus.Registry, opts ...Option) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	recorder := &Recorder{
		registry:   registry,
		labels:     append([]string(nil), DefaultLabels...),
		buckets:    DefaultDurationBuckets,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	return recorder
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	vec, err := r.counter(name)
	if err != nil {
		return
	}
	vec.With(r.labelValues(tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	vec, err := r.histogram(name)
	if err != nil {
		return
	}
	vec.With(r.labelValues(tags)).Observe(value)
}

func (r *Recorder) counter(name string) (*prometheus.CounterVec, error) {
	metricName := sanitizeName(name)
	if metricName == "" {
		return nil, errors.New("metrics: metric name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.counters[metricName]; ok {
		return vec, nil
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "LeadTable counter " + strings.TrimSpace(name),
	}, r.labels)
	registered, err := register(r.registry, vec)
	if err != nil {
		return nil, err
	}
	r.counters[metricName] = registered
	return registered, nil
}

func (r *Recorder) histogram(name string) (*prometheus.HistogramVec, error) {
	metricName := sanitizeName(name)
	if metricName == "" {
		return nil, errors.New("metrics: metric name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.histograms[metricName]; ok {
		return vec, nil
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "LeadTable histogram " + strings.TrimSpace(name),
		Buckets: r.buckets,
	}, r.labels)
	registered, err := register(r.registry, vec)
	if err != nil {
		return nil, err
	}
	r.histograms[metricName] = registered
	return registered, nil
}

func register[C prometheus.Collector](registry *prometheus.Registry, collector C) (C, error) {
	if err := registry.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return collector, nil
}

func (r *Recorder) labelValues(tags map[string]string) prometheus.Labels {
	values := make(prometheus.Labels, len(r.labels))
	for _, label := range r.labels {
		values[label] = ""
	}
	for key, value := range tags {
		label := sanitizeName(key)
		if _, ok := values[label]; ok {
			values[label] = strings.TrimSpace(value)
		}
	}
	return values
}

// sanitizeName maps "leadtable.create_webhook.total" to
// "leadtable_create_webhook_total".
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
