package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	remindersvc "leadops_backend/internal/reminders/service"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Entry is one periodic task and its cron spec.
type Entry struct {
	Name string
	Spec string
	Task *asynq.Task
}

// Entries builds the periodic table from config. A blank spec disables
// its task.
func Entries(cfg config.ReminderConfig) ([]Entry, error) {
	specs := []struct {
		job  string
		spec string
	}{
		{remindersvc.JobDayOf, cfg.GetDayOfReminderCron()},
		{remindersvc.JobHourBefore, cfg.GetHourBeforeReminderCron()},
		{remindersvc.JobFollowup, cfg.GetFollowupReminderCron()},
		{remindersvc.JobTelegramDigest, cfg.GetTelegramDigestCron()},
	}

	entries := make([]Entry, 0, len(specs)+1)
	for _, s := range specs {
		if strings.TrimSpace(s.spec) == "" {
			continue
		}
		task, err := NewReminderRunTask(ReminderRunPayload{Job: s.job})
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: s.job, Spec: strings.TrimSpace(s.spec), Task: task})
	}
	if spec := strings.TrimSpace(cfg.GetSLASweepCron()); spec != "" {
		entries = append(entries, Entry{Name: "sla_sweep", Spec: spec, Task: NewRouterSLASweepTask()})
	}
	return entries, nil
}

// Periodic enqueues the reminder and SLA tasks on their cron specs.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// PeriodicConfig combines the settings the periodic scheduler needs.
type PeriodicConfig interface {
	config.SchedulerConfig
	config.ReminderConfig
}

func NewPeriodic(cfg PeriodicConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	entries, err := Entries(cfg)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})
	queue := queueName(cfg)
	for _, e := range entries {
		// Each task is unique for a minute so overlapping schedulers enqueue it once.
		if _, err := scheduler.Register(e.Spec, e.Task, asynq.Queue(queue), asynq.Unique(time.Minute)); err != nil {
			return nil, fmt.Errorf("register %s (%s): %w", e.Name, e.Spec, err)
		}
		log.Info("registered periodic task", "task", e.Name, "spec", e.Spec)
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
