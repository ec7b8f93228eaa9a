package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueuePublish schedules a publish task to fire after delay. A zero delay
// publishes as soon as a worker picks the task up.
func EnqueuePublish(asynqClient *asynq.Client, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	if _, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay)); err != nil {
		return err
	}

	log.Printf("Publish task scheduled: %+v", payload)
	return nil
}

// EnqueueHistorySync defers reconciliation work out of a webhook handler so
// the handler can 200 immediately.
func EnqueueHistorySync(asynqClient *asynq.Client) error {
	task := asynq.NewTask(TaskTypeSyncHistory, nil)
	_, err := asynqClient.Enqueue(task)
	return err
}
