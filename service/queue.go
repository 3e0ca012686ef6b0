package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"reelforge-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateBatch = "batch:generate"
)

type TaskPayload struct {
	TaskID string `json:"task_id"`
}

var QueueClient *asynq.Client

// InitQueue connects the redis-backed task queue; called from main.
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueTask puts one pipeline run on the queue. A failed stage marks the
// task failed without retrying, so MaxRetry only covers queue-level hiccups.
func EnqueueTask(taskID string) error {
	payload, err := json.Marshal(TaskPayload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGenerateBatch, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(20*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Task Enqueued: ID=%s, TaskID=%s", taskID, info.ID)
	return nil
}
