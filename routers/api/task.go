package api

import (
	"net/http"
	"time"

	"reelforge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TaskProgressWebSocket streams task progress. The DB row is the source of
// truth: the pipeline writes progress snapshots into it, this endpoint polls
// and pushes the diffs.
func TaskProgressWebSocket(c *gin.Context) {
	taskID := c.Param("task_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "websocket upgrade failed"})
		return
	}
	defer conn.Close()

	t, err := models.GetTaskByID(taskID)
	if err != nil {
		conn.WriteJSON(map[string]interface{}{"error": "task not found: " + err.Error()})
		return
	}
	_ = conn.WriteJSON(t)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prevStatus := t.Status
	prevProgress := t.Progress

	for range ticker.C {
		cur, err := models.GetTaskByID(taskID)
		if err != nil {
			continue
		}

		if cur.Status != prevStatus || cur.Progress != prevProgress {
			if err := conn.WriteJSON(cur); err != nil {
				break
			}
			prevStatus = cur.Status
			prevProgress = cur.Progress
		}

		if cur.Status == models.TaskStatusSuccess || cur.Status == models.TaskStatusFailed {
			_ = conn.WriteJSON(cur)
			break
		}
	}
}

// GetTaskStatus returns one task row. GET /v1/api/tasks/:task_id
func GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	t, err := models.GetTaskByID(taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "task not found: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": t})
}
