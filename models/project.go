package models

import "time"

// Project status values. Transitions only move forward, except any status may
// drop to failed when a pipeline stage errors out.
const (
	ProjectStatusIdle                = "idle"
	ProjectStatusBrainstorming       = "brainstorming"
	ProjectStatusGeneratingScenarios = "generating_scenarios"
	ProjectStatusFetchingAssets      = "fetching_assets"
	ProjectStatusComposing           = "composing"
	ProjectStatusCompleted           = "completed"
	ProjectStatusFailed              = "failed"
)

type Project struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserId     string    `json:"userId"`
	Topic      string    `json:"topic"`
	Style      string    `json:"style"`
	Status     string    `json:"status"`
	Language   string    `json:"language"`
	VideoCount int       `json:"videoCount"`
	Duration   int       `json:"duration"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "project"
}
