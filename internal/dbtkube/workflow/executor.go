package workflow

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anhhoangdev/dbtkube/internal/dbtkube/domain"
	"github.com/anhhoangdev/dbtkube/internal/dbtkube/jobspec"
	"github.com/anhhoangdev/dbtkube/pkg/config"
	"github.com/anhhoangdev/dbtkube/pkg/errors"
)

// Runner submits one job request and blocks until it finishes.
type Runner interface {
	Run(ctx context.Context, req *jobspec.JobRequest) error
}

// Notifier delivers a failure notification. Optional; a nil Notifier
// disables alerting.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Executor walks a validated pipeline in dependency order and submits each
// task's pod sequentially, applying the pipeline's retry policy. One run at
// a time; a second concurrent Execute call fails with ErrRunInProgress.
type Executor struct {
	runner   Runner
	notifier Notifier
	logger   *logrus.Entry
	running  atomic.Bool

	// delay waits between retry attempts; swapped out in tests.
	delay func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor. notifier may be nil.
func NewExecutor(runner Runner, notifier Notifier) *Executor {
	return &Executor{
		runner:   runner,
		notifier: notifier,
		logger:   logrus.WithField("component", "executor"),
		delay:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute builds every task up front, then runs them in topological order.
// A task failure, after exhausting retries, stops all downstream tasks and
// fires the notifier.
func (e *Executor) Execute(ctx context.Context, pipeline *Pipeline, cfg *jobspec.Config, settings *config.Settings, rc domain.RunContext) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.WrapPipelineError(pipeline.ID, "execute", errors.ErrRunInProgress)
	}
	defer e.running.Store(false)

	log := e.logger.WithFields(logrus.Fields{"pipeline": pipeline.ID, "run": rc.RunID})

	built, err := pipeline.BuildAll(cfg, settings, rc)
	if err != nil {
		return err
	}
	log.WithField("tasks", len(built)).Info("Pipeline run starting")

	for _, bt := range built {
		if err := e.runTask(ctx, pipeline, bt, log); err != nil {
			e.notifyFailure(pipeline, bt, rc, err)
			return err
		}
	}

	log.Info("Pipeline run completed")
	return nil
}

// runTask runs one task with the pipeline's retry policy. Only errors the
// classifier marks retryable burn attempts; specification errors and
// cancellations stop immediately.
func (e *Executor) runTask(ctx context.Context, pipeline *Pipeline, bt *BuiltTask, log *logrus.Entry) error {
	attempts := pipeline.Policy.Retries + 1
	taskLog := log.WithField("task", bt.Task.ID)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		taskLog.WithField("attempt", attempt).Info("Submitting task")

		lastErr = e.runner.Run(ctx, bt.Request)
		if lastErr == nil {
			taskLog.Info("Task completed")
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			break
		}

		taskLog.WithError(lastErr).Warn("Task attempt failed")
		if attempt < attempts {
			if err := e.delay(ctx, pipeline.Policy.RetryDelay); err != nil {
				return errors.WrapPipelineError(pipeline.ID, "retry-wait", err)
			}
		}
	}

	taskLog.WithError(lastErr).Error("Task failed, stopping downstream tasks")
	return errors.WrapPipelineError(pipeline.ID, "run-task", lastErr)
}

func (e *Executor) notifyFailure(pipeline *Pipeline, bt *BuiltTask, rc domain.RunContext, err error) {
	if e.notifier == nil {
		return
	}

	message := fmt.Sprintf("Pipeline %s run %s failed at task %s: %v",
		pipeline.ID, rc.RunID, bt.Task.ID, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if notifyErr := e.notifier.Notify(ctx, message); notifyErr != nil {
		e.logger.WithError(notifyErr).Warn("Failed to deliver failure notification")
	}
}
