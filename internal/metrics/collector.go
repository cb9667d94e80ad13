package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"GrowthRanker/internal/domain"
)

// Collector holds the Prometheus metrics of the ranking pipeline.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	records       *prometheus.CounterVec
	moatParse     *prometheus.CounterVec
	batches       prometheus.Counter
	rankedGauge   prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "growthranker_stage_duration_seconds",
				Help:    "Duration of each scoring stage in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "result"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthranker_records_total",
				Help: "Records that left the pipeline, by status",
			},
			[]string{"status"},
		),
		moatParse: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthranker_moat_parse_total",
				Help: "Moat response parse outcomes",
			},
			[]string{"outcome"},
		),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growthranker_batches_total",
			Help: "Completed batch runs",
		}),
		rankedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growthranker_last_batch_ranked",
			Help: "Number of ranked records in the last batch",
		}),
	}

	c.registry.MustRegister(c.stageDuration, c.records, c.moatParse, c.batches, c.rankedGauge)
	return c
}

// Registry exposes the underlying registry for tests and custom exporters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveStage(stage string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.stageDuration.WithLabelValues(stage, result).Observe(elapsed.Seconds())
}

func (c *Collector) RecordResult(status domain.ResultStatus) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(string(status)).Inc()
}

func (c *Collector) MoatParse(outcome string) {
	if c == nil {
		return
	}
	c.moatParse.WithLabelValues(outcome).Inc()
}

func (c *Collector) BatchDone(ranked int) {
	if c == nil {
		return
	}
	c.batches.Inc()
	c.rankedGauge.Set(float64(ranked))
}
