// Package metrics exposes Prometheus-format counters, gauges and
// histograms without an external client dependency.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Registry holds the process metrics.
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter is a monotonically increasing metric.
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram records observations into cumulative buckets.
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry returns the process-wide registry, creating it on first use.
func GetRegistry() *Registry {
	once.Do(func() {
		registry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		initDefaultMetrics()
	})
	return registry
}

func initDefaultMetrics() {
	registry.NewCounter("roosterd_http_requests_total", "Total HTTP requests", []string{"method", "path", "status"})

	registry.NewHistogram("roosterd_http_request_duration_seconds", "HTTP request latency",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	registry.NewCounter("roosterd_runs_total", "Orchestration runs", []string{"mode", "status"})

	registry.NewHistogram("roosterd_run_duration_seconds", "Orchestration run latency",
		[]string{"mode"},
		[]float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0})

	registry.NewCounter("roosterd_constraint_events_total", "Constraint events emitted by runs", []string{"kind", "severity"})

	registry.NewCounter("roosterd_shifts_written_total", "Shift rows written by applies", []string{"operation"})

	registry.NewGauge("roosterd_coverage_rate", "Coverage rate of the applied horizon", []string{"team_id"})

	registry.NewGauge("roosterd_db_connections", "Database connections", []string{"state"})

	registry.NewCounter("roosterd_extender_ticks_total", "Rolling extender ticks", []string{"status"})

	registry.NewGauge("roosterd_extender_lag_days", "Days between the applied horizon end and the target", []string{"team_id"})
}

// NewCounter registers a counter.
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge registers a gauge.
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram registers a histogram.
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter looks up a registered counter.
func (r *Registry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge looks up a registered gauge.
func (r *Registry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram looks up a registered histogram.
func (r *Registry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc increments the counter by one.
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add increments the counter by value.
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := labelKey(labelValues)
	c.values[key] += value
}

// Set sets the gauge.
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := labelKey(labelValues)
	g.values[key] = value
}

// Inc increments the gauge by one.
func (g *Gauge) Inc(labelValues ...string) {
	g.Add(1, labelValues...)
}

// Dec decrements the gauge by one.
func (g *Gauge) Dec(labelValues ...string) {
	g.Add(-1, labelValues...)
}

// Add increments the gauge by value.
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := labelKey(labelValues)
	g.values[key] += value
}

// Observe records one observation.
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)

	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
		}
	}
	h.counts[key][len(h.Buckets)]++ // +Inf bucket

	h.sums[key] += value
}

func labelKey(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	key := ""
	for i, l := range labels {
		if i > 0 {
			key += ","
		}
		key += l
	}
	return key
}

// Handler serves the registry in Prometheus text format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		registry := GetRegistry()
		registry.mu.RLock()
		defer registry.mu.RUnlock()

		for _, counter := range registry.counters {
			fmt.Fprintf(w, "# HELP %s %s\n", counter.Name, counter.Help)
			fmt.Fprintf(w, "# TYPE %s counter\n", counter.Name)

			counter.mu.RLock()
			for key, value := range counter.values {
				if key == "" {
					fmt.Fprintf(w, "%s %f\n", counter.Name, value)
				} else {
					fmt.Fprintf(w, "%s{%s} %f\n", counter.Name, formatLabels(counter.Labels, key), value)
				}
			}
			counter.mu.RUnlock()
		}

		for _, gauge := range registry.gauges {
			fmt.Fprintf(w, "# HELP %s %s\n", gauge.Name, gauge.Help)
			fmt.Fprintf(w, "# TYPE %s gauge\n", gauge.Name)

			gauge.mu.RLock()
			for key, value := range gauge.values {
				if key == "" {
					fmt.Fprintf(w, "%s %f\n", gauge.Name, value)
				} else {
					fmt.Fprintf(w, "%s{%s} %f\n", gauge.Name, formatLabels(gauge.Labels, key), value)
				}
			}
			gauge.mu.RUnlock()
		}

		for _, histogram := range registry.histograms {
			fmt.Fprintf(w, "# HELP %s %s\n", histogram.Name, histogram.Help)
			fmt.Fprintf(w, "# TYPE %s histogram\n", histogram.Name)

			histogram.mu.RLock()
			for key, counts := range histogram.counts {
				cumulative := 0
				for i, bucket := range histogram.Buckets {
					cumulative += counts[i]
					if key == "" {
						fmt.Fprintf(w, "%s_bucket{le=\"%f\"} %d\n", histogram.Name, bucket, cumulative)
					} else {
						fmt.Fprintf(w, "%s_bucket{%s,le=\"%f\"} %d\n", histogram.Name, formatLabels(histogram.Labels, key), bucket, cumulative)
					}
				}
				cumulative += counts[len(histogram.Buckets)]
				if key == "" {
					fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", histogram.Name, cumulative)
					fmt.Fprintf(w, "%s_sum %f\n", histogram.Name, histogram.sums[key])
					fmt.Fprintf(w, "%s_count %d\n", histogram.Name, cumulative)
				} else {
					fmt.Fprintf(w, "%s_bucket{%s,le=\"+Inf\"} %d\n", histogram.Name, formatLabels(histogram.Labels, key), cumulative)
					fmt.Fprintf(w, "%s_sum{%s} %f\n", histogram.Name, formatLabels(histogram.Labels, key), histogram.sums[key])
					fmt.Fprintf(w, "%s_count{%s} %d\n", histogram.Name, formatLabels(histogram.Labels, key), cumulative)
				}
			}
			histogram.mu.RUnlock()
		}
	})
}

func formatLabels(names []string, values string) string {
	vals := splitLabelKey(values)
	result := ""
	for i, name := range names {
		if i > 0 {
			result += ","
		}
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		result += fmt.Sprintf("%s=%q", name, val)
	}
	return result
}

func splitLabelKey(key string) []string {
	if key == "" {
		return nil
	}
	var result []string
	current := ""
	for _, c := range key {
		if c == ',' {
			result = append(result, current)
			current = ""
		} else {
			current += string(c)
		}
	}
	result = append(result, current)
	return result
}

// RecordRequest records one HTTP request.
func RecordRequest(method, path string, status int, duration time.Duration) {
	registry := GetRegistry()

	if counter := registry.GetCounter("roosterd_http_requests_total"); counter != nil {
		counter.Inc(method, path, fmt.Sprintf("%d", status))
	}
	if histogram := registry.GetHistogram("roosterd_http_request_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), method, path)
	}
}

// RecordRun records one orchestration run.
func RecordRun(mode string, success bool, duration time.Duration) {
	registry := GetRegistry()

	status := "success"
	if !success {
		status = "failure"
	}
	if counter := registry.GetCounter("roosterd_runs_total"); counter != nil {
		counter.Inc(mode, status)
	}
	if histogram := registry.GetHistogram("roosterd_run_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), mode)
	}
}

// RecordConstraintEvent counts one constraint event.
func RecordConstraintEvent(kind, severity string) {
	registry := GetRegistry()
	if counter := registry.GetCounter("roosterd_constraint_events_total"); counter != nil {
		counter.Inc(kind, severity)
	}
}

// RecordShiftWrites counts apply mutations.
func RecordShiftWrites(inserted, superseded int) {
	registry := GetRegistry()
	counter := registry.GetCounter("roosterd_shifts_written_total")
	if counter == nil {
		return
	}
	if inserted > 0 {
		counter.Add(float64(inserted), "insert")
	}
	if superseded > 0 {
		counter.Add(float64(superseded), "supersede")
	}
}

// SetCoverageRate sets the team's applied coverage rate.
func SetCoverageRate(teamID string, rate float64) {
	registry := GetRegistry()
	if gauge := registry.GetGauge("roosterd_coverage_rate"); gauge != nil {
		gauge.Set(rate, teamID)
	}
}

// RecordExtenderTick counts one extender pass.
func RecordExtenderTick(success bool) {
	registry := GetRegistry()
	status := "success"
	if !success {
		status = "failure"
	}
	if counter := registry.GetCounter("roosterd_extender_ticks_total"); counter != nil {
		counter.Inc(status)
	}
}

// SetExtenderLag sets the team's horizon lag in days.
func SetExtenderLag(teamID string, days float64) {
	registry := GetRegistry()
	if gauge := registry.GetGauge("roosterd_extender_lag_days"); gauge != nil {
		gauge.Set(days, teamID)
	}
}
