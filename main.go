package main

import (
	"fmt"

	"reelforge-server/config"
	"reelforge-server/models"
	"reelforge-server/routers"
	"reelforge-server/routers/api"
	"reelforge-server/service"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)
	models.InitDB()
	fmt.Println("Database initialized")

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()
	fmt.Println("MinIO initialized")

	processor := service.NewProcessor(models.GormDB)
	processor.StartProcessor(5)

	api.InitDeps(
		service.NewSynthesizer(config.AppConfig),
		service.NewResolver(config.AppConfig, service.MinioStore{}),
		&service.CreditGate{},
	)

	r := routers.InitRouter()
	r.Run(config.AppConfig.Server.Port)
}
