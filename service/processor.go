package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"reelforge-server/config"
	"reelforge-server/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Processor consumes queued generation tasks and runs the pipeline for each.
type Processor struct {
	DB       *gorm.DB
	Synth    *Synthesizer
	Resolver *Resolver
}

func NewProcessor(db *gorm.DB) *Processor {
	cfg := config.AppConfig
	return &Processor{
		DB:       db,
		Synth:    NewSynthesizer(cfg),
		Resolver: NewResolver(cfg, MinioStore{}),
	}
}

// StartProcessor starts the queue consumer in the background.
func (p *Processor) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateBatch, p.HandleGenerateTask)

	log.Printf("Starting Task Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// HandleGenerateTask runs one full pipeline for the task's project, streaming
// progress snapshots back to the task row so websocket clients can follow.
func (p *Processor) HandleGenerateTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	task, err := models.GetTaskByIDGorm(p.DB, payload.TaskID)
	if err != nil {
		return fmt.Errorf("task not found: %v", err)
	}

	log.Printf("Processing Task: %s | Type: %s", task.ID, task.Type)
	if err := task.UpdateStatus(p.DB, models.TaskStatusProcessing, nil, ""); err != nil {
		log.Printf("UpdateStatus processing failed: %v", err)
	}

	project, err := models.GetProjectByID(task.ProjectId)
	if err != nil {
		_ = task.UpdateStatus(p.DB, models.TaskStatusFailed, nil, "project not found")
		return nil
	}

	pipeline := NewPipeline(p.DB, p.Synth, p.Resolver)
	pipeline.OnProgress = func(g GenerationProgress) {
		if err := task.UpdateProgress(p.DB, g.Stage, g.Progress, g.CurrentStep); err != nil {
			log.Printf("progress write failed: %v", err)
		}
	}

	result, err := pipeline.Run(ctx, &project, task.Parameters)
	if err != nil {
		// Stage failures are business failures; do not retry.
		_ = task.UpdateStatus(p.DB, models.TaskStatusFailed, result, err.Error())
		return nil
	}

	_ = task.UpdateStatus(p.DB, models.TaskStatusSuccess, result, "")
	log.Printf("Task %s completed successfully", task.ID)
	return nil
}
