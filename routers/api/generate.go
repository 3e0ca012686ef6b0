package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"reelforge-server/config"
	"reelforge-server/models"
	"reelforge-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateScenario synthesizes N script variants for a topic without touching
// credits or assets. POST /v1/api/generate/scenario
func GenerateScenario(c *gin.Context) {
	var req struct {
		Topic          string                 `json:"topic"`
		VideoCount     int                    `json:"videoCount"`
		Language       string                 `json:"language"`
		CreatorContext map[string]interface{} `json:"creatorContext"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "topic is required"})
		return
	}
	if req.VideoCount <= 0 {
		req.VideoCount = 3
	}

	scenarios, err := synth.Generate(c.Request.Context(), req.Topic, req.VideoCount, req.Language, req.CreatorContext)
	if err != nil {
		log.Printf("scenario generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "scenario generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"scenarios": scenarios,
			"count":     len(scenarios),
		},
	})
}

// rawQueryAspects turn a bare topic into distinct visual queries for the raw
// generation path, which skips the synthesizer.
var rawQueryAspects = []string{
	"close up detail",
	"wide establishing shot",
	"slow motion action",
	"overhead view",
	"tracking shot",
	"ambient b-roll",
}

// GenerateRaw is the quick path: deduct credits, build floor(duration/5)
// visual queries from the topic, resolve them, persist the records.
// POST /v1/api/generate/raw
func GenerateRaw(c *gin.Context) {
	var req struct {
		Topic    string `json:"topic"`
		Duration int    `json:"duration"`
		UserId   string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "topic is required"})
		return
	}
	if req.Duration <= 0 {
		req.Duration = config.AppConfig.Render.DefaultDuration
	}
	userID := req.UserId
	if userID == "" {
		userID = c.GetHeader("X-User-ID")
	}
	if userID == "" {
		userID = "demo"
	}

	if err := models.EnsureProfile(userID, 0); err != nil {
		log.Printf("ensure profile failed: %v", err)
	}
	required := service.RequiredCredits(req.Duration)
	if err := gate.Reserve(userID, required); err != nil {
		var insufficient *service.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "error": insufficient.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "credit check failed"})
		return
	}

	queryCount := req.Duration / 5
	if queryCount < 1 {
		queryCount = 1
	}
	queries := make([]string, 0, queryCount)
	for i := 0; i < queryCount; i++ {
		aspect := rawQueryAspects[i%len(rawQueryAspects)]
		queries = append(queries, service.RepairQuery(req.Topic+" "+aspect))
	}

	assets := resolver.ResolveAll(c.Request.Context(), queries)
	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		urls = append(urls, a.URL)
	}

	project := models.Project{
		ID:         uuid.NewString(),
		UserId:     userID,
		Topic:      req.Topic,
		Status:     models.ProjectStatusCompleted,
		Language:   "en",
		VideoCount: 1,
		Duration:   req.Duration,
	}
	if err := models.CreateProject(&project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create project: " + err.Error()})
		return
	}

	scenario := models.Scenario{
		ID:              uuid.NewString(),
		ProjectId:       project.ID,
		Index:           0,
		Title:           req.Topic,
		VoiceoverText:   "",
		AssetQueries:    models.AssetQueries(queries),
		DurationSeconds: req.Duration,
		Tone:            models.ToneProfessional,
		CreatedAt:       time.Now(),
	}
	if err := models.BatchCreateScenarios(models.GormDB, []models.Scenario{scenario}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create scenario: " + err.Error()})
		return
	}

	video := models.Video{
		ID:         uuid.NewString(),
		ProjectId:  project.ID,
		ScenarioId: scenario.ID,
		Status:     models.VideoStatusQueued,
		Width:      config.AppConfig.Render.Width,
		Height:     config.AppConfig.Render.Height,
		FPS:        config.AppConfig.Render.FPS,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := models.GormDB.Create(&video).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create video: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"projectId": project.ID,
			"videoId":   video.ID,
			"assets":    urls,
			"duration":  req.Duration,
			"queries":   queries,
		},
	})
}
