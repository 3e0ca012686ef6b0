package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Scenario tones form a closed set; anything else is coerced to the default
// by the synthesizer's repair step.
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneProvocative  = "provocative"
	ToneEducational  = "educational"
	ToneEmotional    = "emotional"
)

// AssetQueries is stored as a JSON column; order is presentation order.
type AssetQueries []string

func (q AssetQueries) Value() (driver.Value, error) {
	return json.Marshal(q)
}

func (q *AssetQueries) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, q)
}

// Scenario is one scripted variant of a topic. Immutable once generated.
type Scenario struct {
	ID              string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId       string       `json:"projectId"`
	Index           int          `gorm:"column:idx" json:"index"`
	Title           string       `json:"title"`
	Hook            string       `json:"hook"`
	Body            string       `json:"body"`
	CTA             string       `gorm:"column:cta" json:"cta"`
	VoiceoverText   string       `json:"voiceoverText"`
	AssetQueries    AssetQueries `gorm:"type:json" json:"assetQueries"`
	DurationSeconds int          `json:"durationSeconds"`
	Tone            string       `json:"tone"`
	Angle           string       `json:"angle"`
	CreatedAt       time.Time    `json:"createdAt"`
}

func (Scenario) TableName() string {
	return "scenario"
}

func BatchCreateScenarios(db *gorm.DB, scenarios []Scenario) error {
	if len(scenarios) == 0 {
		return nil
	}
	return db.Create(&scenarios).Error
}

func GetScenariosByProjectID(db *gorm.DB, projectID string) ([]Scenario, error) {
	var res []Scenario
	if err := db.Where("project_id = ?", projectID).Order("idx ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}
