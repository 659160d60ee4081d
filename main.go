package main

import (
	"github.com/buddies-social/buddies/config"
	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/routes"
	"github.com/buddies-social/buddies/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// Redis backs the response cache and the token blacklist; the app runs
	// without it, just slower.
	utils.InitRedisFromConfig(cfg)

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Message{}, &models.File{}, &models.ActivityStat{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
