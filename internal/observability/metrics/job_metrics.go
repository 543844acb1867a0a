package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	JobReasonDeadlineExceeded     = "deadline_exceeded"
	JobReasonDBLockTimeout        = "db_lock_timeout"
	JobReasonSerializationFailure = "serialization_failure"
	JobReasonUniqueViolation      = "unique_violation"
	JobReasonUnknown              = "unknown"
)

// JobMetrics captures housekeeping job health.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	affected *prometheus.CounterVec
}

// NewJobMetrics registers job collectors on registerer.
func NewJobMetrics(cfg Config, registerer prometheus.Registerer) (*JobMetrics, error) {
	labels := constLabels(cfg)
	runs, err := register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cicilan_job_runs_total",
		Help:        "Housekeeping job runs by name.",
		ConstLabels: labels,
	}, []string{"job"}))
	if err != nil {
		return nil, err
	}
	errs, err := register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cicilan_job_errors_total",
		Help:        "Housekeeping job errors by low-cardinality reason.",
		ConstLabels: labels,
	}, []string{"job", "reason"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "cicilan_job_duration_seconds",
		Help:        "Housekeeping job latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		ConstLabels: labels,
	}, []string{"job"}))
	if err != nil {
		return nil, err
	}
	affected, err := register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cicilan_job_rows_affected_total",
		Help:        "Rows removed or updated by housekeeping jobs.",
		ConstLabels: labels,
	}, []string{"job"}))
	if err != nil {
		return nil, err
	}
	return &JobMetrics{runs: runs, errors: errs, duration: duration, affected: affected}, nil
}

// Observe records a finished job run.
func (m *JobMetrics) Observe(job string, elapsed time.Duration, rows int64, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job).Inc()
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if rows > 0 {
		m.affected.WithLabelValues(job).Add(float64(rows))
	}
	if err != nil {
		m.errors.WithLabelValues(job, ClassifyJobReason(err)).Inc()
	}
}

// ClassifyJobReason maps err to a bounded label value.
func ClassifyJobReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return JobReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return JobReasonUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return JobReasonDBLockTimeout
		case "40001":
			return JobReasonSerializationFailure
		case "23505":
			return JobReasonUniqueViolation
		}
	}
	return JobReasonUnknown
}
