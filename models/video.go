package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	VideoStatusQueued    = "queued"
	VideoStatusRendering = "rendering"
	VideoStatusCompleted = "completed"
	VideoStatusFailed    = "failed"
)

type Video struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId  string    `json:"projectId"`
	ScenarioId string    `json:"scenarioId"`
	Status     string    `json:"status"`
	FileUrl    string    `json:"fileUrl"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FPS        int       `json:"fps"`
	Frames     int       `json:"frames"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Video) TableName() string {
	return "video"
}

func (v *Video) UpdateStatus(db *gorm.DB, status, fileURL string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if fileURL != "" {
		updates["file_url"] = fileURL
	}
	return db.Model(v).Updates(updates).Error
}

func GetVideosByProjectID(db *gorm.DB, projectID string) ([]Video, error) {
	var res []Video
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}
