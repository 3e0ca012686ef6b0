package routers

import (
	"reelforge-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter() *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/generate/scenario", api.GenerateScenario)
		v1.POST("/generate/raw", api.GenerateRaw)
		v1.POST("/ingest", api.IngestAsset)
		v1.POST("/projects", api.CreateProject)
		v1.GET("/projects/:project_id", api.GetProject)
		v1.DELETE("/projects/:project_id", api.DeleteProject)
		v1.GET("/tasks/:task_id", api.GetTaskStatus)
	}
	r.GET("/tasks/:task_id/wss", api.TaskProgressWebSocket)
	return r
}
