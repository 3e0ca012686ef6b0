package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

const (
	// pending: task is ready and waiting for the processor to pick it up
	TaskStatusPending = "pending"
	// processing: the generation pipeline is running
	TaskStatusProcessing = "processing"
	TaskStatusSuccess    = "finished"
	TaskStatusFailed     = "failed"
	// cancelled: task was cancelled by a project update/delete
	TaskStatusCancelled = "cancelled"

	// TaskTypeGenerateBatch drives the full topic -> N videos pipeline.
	TaskTypeGenerateBatch = "generate_batch"
)

type Task struct {
	ID         string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId  string         `json:"projectId"`
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Stage      string         `json:"stage"`
	Progress   int            `json:"progress"`
	Message    string         `json:"message"`
	Parameters TaskParameters `gorm:"type:json" json:"parameters"`
	Result     TaskResult     `gorm:"type:json" json:"result"`
	Error      string         `json:"error"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

type TaskParameters struct {
	Topic          string                 `json:"topic"`
	VideoCount     int                    `json:"video_count"`
	Language       string                 `json:"language"`
	Style          string                 `json:"style"`
	Duration       int                    `json:"duration"`
	UserId         string                 `json:"user_id"`
	CreatorContext map[string]interface{} `json:"creator_context,omitempty"`
}

type TaskResult struct {
	ScenariosGenerated int      `json:"scenarios_generated"`
	VideosRendered     int      `json:"videos_rendered"`
	TotalVideos        int      `json:"total_videos"`
	PlanUrls           []string `json:"plan_urls,omitempty"`
}

func (p TaskParameters) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *TaskParameters) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, p)
}

func (r TaskResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *TaskResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, r)
}

func (t *Task) UpdateStatus(db *gorm.DB, status string, result interface{}, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if result != nil {
		jsonBytes, err := json.Marshal(result)
		if err != nil {
			log.Printf("marshal task result failed: %v", err)
		} else {
			updates["result"] = jsonBytes
		}
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	if status == TaskStatusSuccess || status == TaskStatusFailed {
		updates["finished_at"] = time.Now()
	}
	return db.Model(t).Updates(updates).Error
}

// UpdateProgress writes the ephemeral pipeline progress snapshot back to the
// task row so websocket clients can follow along.
func (t *Task) UpdateProgress(db *gorm.DB, stage string, progress int, message string) error {
	updates := map[string]interface{}{
		"stage":      stage,
		"progress":   progress,
		"message":    message,
		"updated_at": time.Now(),
	}
	return db.Model(t).Updates(updates).Error
}

func GetTaskByIDGorm(db *gorm.DB, taskID string) (*Task, error) {
	var task Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (Task) TableName() string {
	return "task"
}
