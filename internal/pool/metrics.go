package pool

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a point-in-time snapshot of pool occupancy and collector
// activity. Purely observational; reading it takes no lock mode.
type Metrics struct {
	// Terms is the number of live entries in the term table.
	Terms int64

	// Capacity is the number of allocated term records, live plus free.
	Capacity int64

	// Symbols is the number of interned symbols.
	Symbols int64

	// RootProviders is the number of registered root providers, sessions
	// included.
	RootProviders int64

	// Collections is the number of completed collection cycles.
	Collections uint64

	// SweptTerms and SweptSymbols count entries reclaimed over all cycles.
	SweptTerms   uint64
	SweptSymbols uint64

	// ProviderFailures counts aborted cycles.
	ProviderFailures uint64

	// Threshold is the live-term count that will trigger the next
	// automatic cycle.
	Threshold int64
}

// Size returns the number of live terms, the empty-list sentinel
// included.
func (p *Pool) Size() int {
	return int(p.terms.size.Load())
}

// Capacity returns the number of allocated term records, live plus
// reusable.
func (p *Pool) Capacity() int {
	return int(p.terms.size.Load() + p.terms.freeCount.Load())
}

// Metrics returns a snapshot of pool counters.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Terms:            p.terms.size.Load(),
		Capacity:         p.terms.size.Load() + p.terms.freeCount.Load(),
		Symbols:          int64(p.symbols.len()),
		RootProviders:    int64(p.registry.len()),
		Collections:      p.collections.Load(),
		SweptTerms:       p.sweptTerms.Load(),
		SweptSymbols:     p.sweptSymbols.Load(),
		ProviderFailures: p.providerFailures.Load(),
		Threshold:        p.threshold.Load(),
	}
}

// PrintMetrics logs the current snapshot, for diagnosing
// collection-threshold tuning.
func (p *Pool) PrintMetrics() {
	m := p.Metrics()
	slog.Info("term pool metrics",
		"terms", m.Terms,
		"capacity", m.Capacity,
		"symbols", m.Symbols,
		"root_providers", m.RootProviders,
		"collections", m.Collections,
		"swept_terms", m.SweptTerms,
		"swept_symbols", m.SweptSymbols,
		"provider_failures", m.ProviderFailures,
		"threshold", m.Threshold,
	)
}

// MetricsCollector exports pool counters as Prometheus metrics. Register
// it with a prometheus.Registerer; scrapes read atomics only and never
// block on the pool lock.
type MetricsCollector struct {
	pool *Pool

	terms            *prometheus.Desc
	capacity         *prometheus.Desc
	symbols          *prometheus.Desc
	rootProviders    *prometheus.Desc
	collections      *prometheus.Desc
	sweptTerms       *prometheus.Desc
	sweptSymbols     *prometheus.Desc
	providerFailures *prometheus.Desc
}

// NewMetricsCollector creates a collector over the pool.
func NewMetricsCollector(p *Pool) *MetricsCollector {
	return &MetricsCollector{
		pool: p,
		terms: prometheus.NewDesc(
			"termpool_terms", "Live entries in the term table.", nil, nil),
		capacity: prometheus.NewDesc(
			"termpool_capacity", "Allocated term records, live plus free.", nil, nil),
		symbols: prometheus.NewDesc(
			"termpool_symbols", "Interned function symbols.", nil, nil),
		rootProviders: prometheus.NewDesc(
			"termpool_root_providers", "Registered root providers.", nil, nil),
		collections: prometheus.NewDesc(
			"termpool_collections_total", "Completed collection cycles.", nil, nil),
		sweptTerms: prometheus.NewDesc(
			"termpool_swept_terms_total", "Terms reclaimed by the collector.", nil, nil),
		sweptSymbols: prometheus.NewDesc(
			"termpool_swept_symbols_total", "Symbols reclaimed by the collector.", nil, nil),
		providerFailures: prometheus.NewDesc(
			"termpool_provider_failures_total", "Collection cycles aborted by a root provider failure.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.terms
	ch <- c.capacity
	ch <- c.symbols
	ch <- c.rootProviders
	ch <- c.collections
	ch <- c.sweptTerms
	ch <- c.sweptSymbols
	ch <- c.providerFailures
}

// Collect implements prometheus.Collector.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.pool.Metrics()
	ch <- prometheus.MustNewConstMetric(c.terms, prometheus.GaugeValue, float64(m.Terms))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(m.Capacity))
	ch <- prometheus.MustNewConstMetric(c.symbols, prometheus.GaugeValue, float64(m.Symbols))
	ch <- prometheus.MustNewConstMetric(c.rootProviders, prometheus.GaugeValue, float64(m.RootProviders))
	ch <- prometheus.MustNewConstMetric(c.collections, prometheus.CounterValue, float64(m.Collections))
	ch <- prometheus.MustNewConstMetric(c.sweptTerms, prometheus.CounterValue, float64(m.SweptTerms))
	ch <- prometheus.MustNewConstMetric(c.sweptSymbols, prometheus.CounterValue, float64(m.SweptSymbols))
	ch <- prometheus.MustNewConstMetric(c.providerFailures, prometheus.CounterValue, float64(m.ProviderFailures))
}
