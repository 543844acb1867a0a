package scheduler

import (
	"context"
	"errors"
	"time"

	obslogger "github.com/smallbiznis/cicilan/internal/observability/logger"
	"go.uber.org/zap"
)

type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	affected  int64
}

func newJobRun(job, runID string, startedAt time.Time) *jobRun {
	return &jobRun{job: job, runID: runID, startedAt: startedAt}
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(log *zap.Logger, run *jobRun) {
	log.Info("job started", zap.Time("started_at", run.startedAt))
}

func (s *Scheduler) logJobFinish(log *zap.Logger, run *jobRun, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.Int64("rows_affected", run.affected),
		zap.Duration("duration", elapsed),
	}
	switch {
	case err == nil:
		log.Info("job finished", fields...)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		log.Warn("job timed out", append(fields, zap.Duration("timeout", s.cfg.JobTimeout))...)
	default:
		log.Error("job failed", append(fields, zap.Error(err))...)
	}
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
