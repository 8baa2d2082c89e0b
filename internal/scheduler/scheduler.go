// Package scheduler runs periodic background maintenance against an
// open trace on a cron expression, instead of a raw ticker, so the
// cadence reads the same way an operator would configure any other
// periodic job in this engine's ambient stack.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/logging"
)

// Task is one unit of periodic maintenance work, given a context tied
// to the scheduler's lifetime.
type Task func(ctx context.Context)

// Scheduler wraps a cron.Cron with a bound lifetime context, so every
// scheduled Task is cancelled together on Stop rather than leaking
// past it.
type Scheduler struct {
	cron   *cron.Cron
	cancel context.CancelFunc
	ctx    context.Context
	log    *logging.Logger
}

// New constructs a Scheduler. It does not start running until Start
// is called.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
		log:    logging.Default(),
	}
}

// Every registers task to run on spec, a standard five-field cron
// expression (e.g. "*/5 * * * *" for every five minutes). A malformed
// spec is logged and the task is simply never scheduled, since a
// background maintenance cadence failing to parse shouldn't prevent
// the engine it maintains from opening.
func (s *Scheduler) Every(spec string, task Task) {
	_, err := s.cron.AddFunc(spec, func() {
		task(s.ctx)
	})
	if err != nil {
		s.log.Error(s.ctx, "scheduler: invalid cron spec", err, map[string]interface{}{
			"spec": spec,
		})
	}
}

// Start begins running registered tasks on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels every scheduled task's context and waits for any run
// currently in flight to return.
func (s *Scheduler) Stop() {
	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
