package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/auditcontext"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	obscontext "github.com/smallbiznis/cicilan/internal/observability/context"
	obsmetrics "github.com/smallbiznis/cicilan/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobPurgeSessions = "purge_expired_sessions"
	JobPurgeAudit    = "purge_audit_logs"

	lockPrefix = "cicilan:job:"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// Locker serialises a job across instances. A disabled locker lets every
// instance run the job.
type Locker interface {
	Enabled() bool
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// Job is a housekeeping task run on a cron spec. Run reports affected rows.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int64, error)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Clock      clock.Clock
	GenID      *snowflake.Node
	AuthSvc    authdomain.Service
	AuditSvc   auditdomain.Service
	Locker     Locker                 `optional:"true"`
	JobMetrics *obsmetrics.JobMetrics `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        config.SchedulerConfig
	clock      clock.Clock
	genID      *snowflake.Node
	authSvc    authdomain.Service
	auditSvc   auditdomain.Service
	locker     Locker
	jobMetrics *obsmetrics.JobMetrics
	cron       *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.AuthSvc == nil || p.AuditSvc == nil {
		return nil, ErrInvalidConfig
	}
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	cfg := p.Config.Scheduler
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        cfg,
		clock:      c,
		genID:      p.GenID,
		authSvc:    p.AuthSvc,
		auditSvc:   p.AuditSvc,
		locker:     p.Locker,
		jobMetrics: p.JobMetrics,
	}, nil
}

// Jobs lists the housekeeping jobs with a configured spec.
func (s *Scheduler) Jobs() []Job {
	var jobs []Job
	if s.cfg.SessionPurgeSpec != "" {
		jobs = append(jobs, Job{Name: JobPurgeSessions, Spec: s.cfg.SessionPurgeSpec, Run: s.purgeSessions})
	}
	if s.cfg.AuditPurgeSpec != "" && s.cfg.AuditRetentionDays > 0 {
		jobs = append(jobs, Job{Name: JobPurgeAudit, Spec: s.cfg.AuditPurgeSpec, Run: s.purgeAuditLogs})
	}
	return jobs
}

func (s *Scheduler) purgeSessions(ctx context.Context) (int64, error) {
	return s.authSvc.PurgeExpiredSessions(ctx, s.clock.Now())
}

func (s *Scheduler) purgeAuditLogs(ctx context.Context) (int64, error) {
	before := s.clock.Now().AddDate(0, 0, -s.cfg.AuditRetentionDays)
	return s.auditSvc.Purge(ctx, before)
}

// Start registers every job on a cron runner. Overlapping runs of the same
// job are skipped.
func (s *Scheduler) Start(parent context.Context) error {
	logger := cronLogger{log: s.log.Sugar()}
	runner := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	for _, job := range s.Jobs() {
		job := job
		if _, err := runner.AddFunc(job.Spec, func() { _ = s.RunJob(parent, job) }); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		s.log.Info("job scheduled", zap.String("job", job.Name), zap.String("spec", job.Spec))
	}
	runner.Start()
	s.cron = runner
	return nil
}

// Stop waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunJob executes job once under the job timeout. Timeouts are logged and
// counted but not returned.
func (s *Scheduler) RunJob(parent context.Context, job Job) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx = auditcontext.WithActor(ctx, string(auditdomain.ActorTypeSystem), "scheduler")
	ctx = obscontext.WithActor(ctx, string(auditdomain.ActorTypeSystem), "scheduler")
	run := newJobRun(job.Name, s.genID.Generate().String(), start)
	log := s.logger(ctx).With(zap.String("job", job.Name), zap.String("run_id", run.runID))

	if s.locker != nil && s.locker.Enabled() {
		key := lockPrefix + job.Name
		token, ok, err := s.locker.TryLock(ctx, key, s.cfg.JobTimeout)
		switch {
		case err != nil:
			log.Warn("job lock unavailable, running unlocked", zap.Error(err))
		case !ok:
			log.Debug("job already running elsewhere")
			return nil
		default:
			defer func() {
				if err := s.locker.Release(context.Background(), key, token); err != nil {
					log.Warn("job lock release failed", zap.Error(err))
				}
			}()
		}
	}

	s.logJobStart(log, run)
	rows, err := job.Run(ctx)
	run.affected = rows
	elapsed := s.clock.Now().Sub(start)
	s.jobMetrics.Observe(job.Name, elapsed, rows, err)
	s.logJobFinish(log, run, elapsed, err)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
