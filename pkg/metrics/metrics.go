package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StepMetrics records outcomes for ETL pipeline steps.
type StepMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewStepMetrics registers step metrics on the provided registerer.
func NewStepMetrics(reg prometheus.Registerer) *StepMetrics {
	if reg == nil {
		return &StepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etl_step_duration_seconds",
		Help:    "Duration of ETL steps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_step_success",
		Help: "Successful ETL step executions.",
	}, []string{"step"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_step_failure",
		Help: "Failed ETL step executions.",
	}, []string{"step"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_step_rows_upserted",
		Help: "Rows written to the warehouse per step.",
	}, []string{"step"})
	reg.MustRegister(duration, success, failure, rows)
	return &StepMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rows:     rows,
	}
}

// ObserveDuration records the duration for the named step.
func (s *StepMetrics) ObserveDuration(step string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(step)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named step.
func (s *StepMetrics) IncSuccess(step string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncFailure increments the failure counter for the named step.
func (s *StepMetrics) IncFailure(step string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(step)).Inc()
}

// AddRows records rows upserted for the named step.
func (s *StepMetrics) AddRows(step string, count int) {
	if s == nil || s.rows == nil || count <= 0 {
		return
	}
	s.rows.WithLabelValues(normalizeLabel(step)).Add(float64(count))
}

func normalizeLabel(step string) string {
	if step == "" {
		return "unknown"
	}
	return step
}
