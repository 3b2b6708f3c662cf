package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sekolahku/poin-api/internal/ctxutil"
	"github.com/sekolahku/poin-api/internal/observability"
)

type Job func(ctx context.Context) error

// Runner fires jobs on fixed intervals until its context is canceled.
// Jobs run sequentially per schedule; a slow run delays the next tick.
type Runner struct {
	ctx context.Context
	log *zap.SugaredLogger
}

func New(ctx context.Context, log *zap.SugaredLogger) *Runner {
	return &Runner{ctx: ctx, log: log}
}

func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// run executes one job tick with metrics and error reporting. Failures
// are logged and sent to Sentry but never stop the schedule.
func (r *Runner) run(name string, fn Job) {
	ctx := ctxutil.WithOp(r.ctx, name)
	start := time.Now()
	if err := fn(ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		observability.CaptureErr(err)
		r.log.Errorw("job failed", "job", name, "err", err)
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
