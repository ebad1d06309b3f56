package tasks

import (
	"encoding/json"
	"time"

	"bodima/config"
	"bodima/models"

	"github.com/hibiken/asynq"
)

const (
	TypeDraftExpire  = "draft:expire"
	TypeConfirmAlert = "confirm:alert"
)

// NewDraftExpiryTask builds a task that clears an abandoned draft at fireAt.
func NewDraftExpiryTask(sessionID string, startedAt, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.DraftExpiryPayload{SessionID: sessionID, StartedAt: startedAt})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeDraftExpire, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}
	return task, opts, nil
}

// NewConfirmAlertTask builds a task that routes a confirmation incident to
// support.
func NewConfirmAlertTask(incident models.ConfirmIncident) (*asynq.Task, error) {
	b, err := json.Marshal(incident)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeConfirmAlert, b), nil
}

// Queue enqueues flow background work onto the async worker's Redis queue.
type Queue struct {
	Client *asynq.Client
}

func NewQueue() *Queue {
	return &Queue{
		Client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisTaskQueueDB,
		}),
	}
}

func (q *Queue) ScheduleDraftExpiry(sessionID string, startedAt, fireAt time.Time) error {
	task, opts, err := NewDraftExpiryTask(sessionID, startedAt, fireAt)
	if err != nil {
		return err
	}
	_, err = q.Client.Enqueue(task, opts...)
	return err
}

func (q *Queue) EnqueueConfirmAlert(incident models.ConfirmIncident) error {
	task, err := NewConfirmAlertTask(incident)
	if err != nil {
		return err
	}
	_, err = q.Client.Enqueue(task)
	return err
}
