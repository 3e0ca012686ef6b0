package api

import (
	"errors"
	"log"
	"net/http"

	"reelforge-server/config"
	"reelforge-server/models"
	"reelforge-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateProject admits a batch generation request: reserves credits for the
// whole batch up front, persists the project, and enqueues one pipeline task.
// POST /v1/api/projects
func CreateProject(c *gin.Context) {
	var req struct {
		Topic          string                 `json:"topic"`
		VideoCount     int                    `json:"videoCount"`
		Language       string                 `json:"language"`
		Style          string                 `json:"style"`
		Duration       int                    `json:"duration"`
		UserId         string                 `json:"userId"`
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
	if req.Duration <= 0 {
		req.Duration = config.AppConfig.Render.DefaultDuration
	}
	if req.Language == "" {
		req.Language = "en"
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
	required := service.RequiredCredits(req.Duration) * req.VideoCount
	if err := gate.Reserve(userID, required); err != nil {
		var insufficient *service.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "error": insufficient.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "credit check failed"})
		return
	}

	project := models.Project{
		ID:         uuid.NewString(),
		UserId:     userID,
		Topic:      req.Topic,
		Style:      req.Style,
		Status:     models.ProjectStatusBrainstorming,
		Language:   req.Language,
		VideoCount: req.VideoCount,
		Duration:   req.Duration,
	}
	if err := models.CreateProject(&project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create project: " + err.Error()})
		return
	}

	task := models.Task{
		ID:        uuid.NewString(),
		ProjectId: project.ID,
		Type:      models.TaskTypeGenerateBatch,
		Status:    models.TaskStatusPending,
		Stage:     service.StageParsing,
		Progress:  0,
		Message:   "Generation task created",
		Parameters: models.TaskParameters{
			Topic:          req.Topic,
			VideoCount:     req.VideoCount,
			Language:       req.Language,
			Style:          req.Style,
			Duration:       req.Duration,
			UserId:         userID,
			CreatorContext: req.CreatorContext,
		},
	}
	if err := models.CreateTask(&task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create task: " + err.Error()})
		return
	}
	if err := service.EnqueueTask(task.ID); err != nil {
		log.Printf("task enqueue failed: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"project_id": project.ID,
			"task_id":    task.ID,
			"message":    "task created but enqueue failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"project_id": project.ID,
		"task_id":    task.ID,
	})
}

// GetProject returns the project with its scenarios, videos, and the most
// recent pipeline task. GET /v1/api/projects/:project_id
func GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := models.GetProjectByID(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "project not found: " + err.Error()})
		return
	}

	scenarios, err := models.GetScenariosByProjectID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load scenarios: " + err.Error()})
		return
	}
	videos, err := models.GetVideosByProjectID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load videos: " + err.Error()})
		return
	}
	recentTask, err := models.GetRecentTaskByProjectID(projectID)
	if err != nil {
		log.Printf("recent task lookup failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"project_detail": project,
		"scenarios":      scenarios,
		"videos":         videos,
		"recent_task":    recentTask,
	})
}

// DeleteProject removes the project and any tasks that have not started.
// Credits already spent on the project are not refunded.
// DELETE /v1/api/projects/:project_id
func DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")

	deleted, err := models.DeleteTasksByProjectID(projectID, models.TaskStatusPending)
	if err != nil {
		log.Printf("failed to delete pending tasks: %v", err)
	}

	if err := models.DeleteProjectByID(projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete project: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"tasks_deleted": deleted,
		"message":       "project deleted",
	})
}
