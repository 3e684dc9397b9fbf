package scheduler

import (
	json "github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const TaskReminderRun = "reminders.run"

const TaskRouterSLASweep = "router.sla_sweep"

type ReminderRunPayload struct {
	Job string `json:"job"`
}

func NewReminderRunTask(payload ReminderRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReminderRun, data), nil
}

func ParseReminderRunPayload(task *asynq.Task) (ReminderRunPayload, error) {
	var payload ReminderRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReminderRunPayload{}, err
	}
	return payload, nil
}

func NewRouterSLASweepTask() *asynq.Task {
	return asynq.NewTask(TaskRouterSLASweep, nil)
}
