package tasks

import (
	"sync"

	"go.uber.org/zap"

	"github.com/olehkozhan/contactbook/pkg/logger"
)

// Runner executes named fire-and-forget jobs. Job failures are logged and
// never joined with the request path that scheduled them.
type Runner struct {
	log *zap.Logger
	wg  sync.WaitGroup
}

// NewRunner constructs a Runner logging under the "tasks" module.
func NewRunner() *Runner {
	return &Runner{log: logger.WithModule("tasks")}
}

// Go schedules job on its own goroutine. Panics are recovered and logged so a
// misbehaving side effect cannot take down the server.
func (r *Runner) Go(name string, job func() error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("task panicked",
					zap.String("task", name),
					zap.Any("panic", rec),
				)
			}
		}()

		if err := job(); err != nil {
			r.log.Warn("task failed",
				zap.String("task", name),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all scheduled jobs have finished. Used during shutdown
// and by tests that need to observe side effects.
func (r *Runner) Wait() {
	r.wg.Wait()
}
