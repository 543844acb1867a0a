package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	auditrepository "github.com/smallbiznis/cicilan/internal/audit/repository"
	auditservice "github.com/smallbiznis/cicilan/internal/audit/service"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	authrepository "github.com/smallbiznis/cicilan/internal/auth/repository"
	authservice "github.com/smallbiznis/cicilan/internal/auth/service"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/migration"
	obsmetrics "github.com/smallbiznis/cicilan/internal/observability/metrics"
	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLocker struct {
	enabled  bool
	granted  bool
	released []string
}

func (l *stubLocker) Enabled() bool { return l.enabled }

func (l *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if !l.granted {
		return "", false, nil
	}
	return "token-" + key, true, nil
}

func (l *stubLocker) Release(_ context.Context, key, _ string) error {
	l.released = append(l.released, key)
	return nil
}

type harness struct {
	sched       *Scheduler
	clock       *clock.FakeClock
	sessionRepo authdomain.SessionRepository
	node        *snowflake.Node
	registry    *prometheus.Registry
}

func newHarness(t *testing.T, locker Locker) *harness {
	t.Helper()

	conn := db.NewTest(t)
	require.NoError(t, migration.ApplySchema(conn))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	userRepo, sessionRepo := authrepository.New(conn)
	auth := authservice.New(authservice.Params{Log: zap.NewNop(), Repo: userRepo, SessionRepo: sessionRepo, GenID: node, Clock: fake})
	audit := auditservice.NewService(auditservice.Params{DB: conn, Log: zap.NewNop(), GenID: node, Repo: auditrepository.Provide(), Clock: fake})

	registry := prometheus.NewRegistry()
	jobMetrics, err := obsmetrics.NewJobMetrics(obsmetrics.Config{ServiceName: "cicilan", Environment: "test"}, registry)
	require.NoError(t, err)

	sched, err := New(Params{
		Log: zap.NewNop(),
		Config: config.Config{Scheduler: config.SchedulerConfig{
			Enabled:            true,
			SessionPurgeSpec:   "@every 1h",
			AuditPurgeSpec:     "@daily",
			AuditRetentionDays: 30,
			JobTimeout:         time.Second,
		}},
		Clock:      fake,
		GenID:      node,
		AuthSvc:    auth,
		AuditSvc:   audit,
		Locker:     locker,
		JobMetrics: jobMetrics,
	})
	require.NoError(t, err)

	return &harness{sched: sched, clock: fake, sessionRepo: sessionRepo, node: node, registry: registry}
}

func (h *harness) job(t *testing.T, name string) Job {
	t.Helper()
	for _, j := range h.sched.Jobs() {
		if j.Name == name {
			return j
		}
	}
	t.Fatalf("job %s not registered", name)
	return Job{}
}

func (h *harness) counter(t *testing.T, name, job string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "job" && l.GetValue() == job {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestJobsFollowConfig(t *testing.T) {
	h := newHarness(t, nil)

	jobs := h.sched.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, JobPurgeSessions, jobs[0].Name)
	assert.Equal(t, "@every 1h", jobs[0].Spec)
	assert.Equal(t, JobPurgeAudit, jobs[1].Name)

	h.sched.cfg.AuditRetentionDays = 0
	assert.Len(t, h.sched.Jobs(), 1)
}

func TestPurgeSessionsJob(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	now := h.clock.Now()

	for i, expires := range []time.Time{now.Add(-time.Hour), now.Add(time.Hour)} {
		require.NoError(t, h.sessionRepo.CreateSession(ctx, &authdomain.Session{
			ID:               h.node.Generate(),
			UserID:           h.node.Generate(),
			SessionTokenHash: []string{"expired", "active"}[i],
			ExpiresAt:        expires,
			CreatedAt:        now.Add(-2 * time.Hour),
			LastSeenAt:       now.Add(-2 * time.Hour),
		}))
	}

	require.NoError(t, h.sched.RunJob(ctx, h.job(t, JobPurgeSessions)))

	_, err := h.sessionRepo.GetSessionByTokenHash(ctx, "expired")
	assert.Error(t, err)
	active, err := h.sessionRepo.GetSessionByTokenHash(ctx, "active")
	require.NoError(t, err)
	assert.NotNil(t, active)

	assert.Equal(t, 1.0, h.counter(t, "cicilan_job_runs_total", JobPurgeSessions))
	assert.Equal(t, 1.0, h.counter(t, "cicilan_job_rows_affected_total", JobPurgeSessions))
}

func TestPurgeAuditJobHonoursRetention(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.sched.auditSvc.AuditLog(ctx, "system", nil, "old", "x", nil, nil))
	h.clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, h.sched.auditSvc.AuditLog(ctx, "system", nil, "recent", "x", nil, nil))

	require.NoError(t, h.sched.RunJob(ctx, h.job(t, JobPurgeAudit)))
	assert.Equal(t, 1.0, h.counter(t, "cicilan_job_rows_affected_total", JobPurgeAudit))
}

func TestRunJobSkipsWhenLockHeldElsewhere(t *testing.T) {
	locker := &stubLocker{enabled: true, granted: false}
	h := newHarness(t, locker)

	ran := false
	err := h.sched.RunJob(context.Background(), Job{Name: "probe", Run: func(context.Context) (int64, error) {
		ran = true
		return 0, nil
	}})
	require.NoError(t, err)
	assert.False(t, ran)

	locker.granted = true
	require.NoError(t, h.sched.RunJob(context.Background(), Job{Name: "probe", Run: func(context.Context) (int64, error) {
		ran = true
		return 0, nil
	}}))
	assert.True(t, ran)
	assert.Equal(t, []string{"cicilan:job:probe"}, locker.released)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	h := newHarness(t, nil)
	h.sched.cfg.JobTimeout = 5 * time.Millisecond

	err := h.sched.RunJob(context.Background(), Job{Name: "slow", Run: func(ctx context.Context) (int64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}})
	assert.NoError(t, err)
	assert.Equal(t, 1.0, h.counter(t, "cicilan_job_errors_total", "slow"))
}

func TestRunJobReturnsFailures(t *testing.T) {
	h := newHarness(t, nil)
	boom := errors.New("boom")

	err := h.sched.RunJob(context.Background(), Job{Name: "broken", Run: func(context.Context) (int64, error) {
		return 0, boom
	}})
	assert.ErrorIs(t, err, boom)
}

func TestStartRejectsBadSpec(t *testing.T) {
	h := newHarness(t, nil)
	h.sched.cfg.SessionPurgeSpec = "not a spec"

	err := h.sched.Start(context.Background())
	assert.Error(t, err)
	assert.NoError(t, h.sched.Stop(context.Background()))
}
