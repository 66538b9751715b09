package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/taskmaster-hq/bugtracker/internal/api"
	"github.com/taskmaster-hq/bugtracker/internal/database"
	"github.com/taskmaster-hq/bugtracker/internal/notify"
	"github.com/taskmaster-hq/bugtracker/internal/service"
	"github.com/taskmaster-hq/bugtracker/internal/storage"
	pkgauth "github.com/taskmaster-hq/bugtracker/pkg/auth"
	"github.com/taskmaster-hq/bugtracker/pkg/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to optional config file (overrides env vars)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	fileStorage, err := storage.NewFileStorage(cfg.Storage.UploadDir, storage.Limits{
		MaxFileSizeMB:   int64(cfg.Attachments.MaxFileSizeMB),
		MaxFilesPerTask: cfg.Attachments.MaxFilesPerTask,
		MaxTotalSizeMB:  int64(cfg.Attachments.MaxTotalSizeMB),
	})
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	jwtManager := pkgauth.NewJWTManager(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	taskService := service.NewTaskService(db, notify.LogSink{})
	userService := service.NewUserService(db)

	handler := api.NewHandler(db, taskService, userService, jwtManager, fileStorage)
	router := api.SetupRouter(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting bug tracker on %s", addr)
	log.Printf("API endpoints: http://%s/api (requires authentication)", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
