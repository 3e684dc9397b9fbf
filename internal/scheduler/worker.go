package scheduler

import (
	"context"
	"fmt"

	remindersvc "leadops_backend/internal/reminders/service"
	routingtransport "leadops_backend/internal/routing/transport"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ReminderRunner runs one named reminder batch.
type ReminderRunner interface {
	Run(ctx context.Context, job string) (remindersvc.Result, error)
}

// SLASweeper reassigns leads that missed their first-call window.
type SLASweeper interface {
	SweepSLA(ctx context.Context) (routingtransport.SweepResult, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	reminders ReminderRunner
	router    SLASweeper
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reminders ReminderRunner, router SLASweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(reminders, router, log)
	w.server = server
	return w, nil
}

func newWorker(reminders ReminderRunner, router SLASweeper, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:       mux,
		reminders: reminders,
		router:    router,
		log:       log,
	}

	mux.HandleFunc(TaskReminderRun, w.handleReminderRun)
	mux.HandleFunc(TaskRouterSLASweep, w.handleRouterSLASweep)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleReminderRun fails the task only when the batch could not load or
// save. Individual send failures are part of the result and are not retried
// by asynq; the next scheduled run picks them up.
func (w *Worker) handleReminderRun(ctx context.Context, task *asynq.Task) error {
	if w.reminders == nil {
		return nil
	}

	payload, err := ParseReminderRunPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	res, err := w.reminders.Run(ctx, payload.Job)
	if err != nil {
		return err
	}
	if res.Failed() > 0 {
		w.log.Warn("reminder batch had failures", "job", res.Job, "failed", res.Failed())
	}
	return nil
}

func (w *Worker) handleRouterSLASweep(ctx context.Context, _ *asynq.Task) error {
	if w.router == nil {
		return nil
	}

	res, err := w.router.SweepSLA(ctx)
	if err != nil {
		return err
	}
	if res.Reassigned > 0 {
		w.log.Info("sla sweep reassigned leads", "count", res.Reassigned)
	}
	return nil
}
