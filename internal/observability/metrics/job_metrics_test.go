package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: JobReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: JobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: JobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: JobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: JobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyJobReason(tc.err))
		})
	}
}

func TestJobMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewJobMetrics(Config{ServiceName: "cicilan", Environment: "test"}, registry)
	require.NoError(t, err)

	m.Observe("purge_sessions", 20*time.Millisecond, 3, nil)
	m.Observe("purge_sessions", 10*time.Millisecond, 0, context.DeadlineExceeded)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.runs.WithLabelValues("purge_sessions")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.affected.WithLabelValues("purge_sessions")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("purge_sessions", JobReasonDeadlineExceeded)))
}

func TestNewHTTPMetricsToleratesReRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(Config{}, registry)
	require.NoError(t, err)
	_, err = NewHTTPMetrics(Config{}, registry)
	require.NoError(t, err)
}
