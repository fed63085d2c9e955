package main

import (
	"log"

	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	"github.com/locentra/locentra-api/realtime"
	"github.com/locentra/locentra-api/server"
	"github.com/locentra/locentra-api/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)
	if err := db.SeedRoles(gormDB.DB); err != nil {
		log.Fatalf("error seeding roles: %v", err)
	}

	authRepo := db.NewAuthRepo(gormDB)
	conversationRepo := db.NewConversationRepo(gormDB)
	jobRepo := db.NewJobRepo(gormDB)
	notificationRepo := db.NewNotificationRepo(gormDB)

	feed := realtime.NewHub()

	fileStore, err := services.NewS3FileStore(conf)
	if err != nil {
		log.Fatalf("error creating file store: %v", err)
	}

	authService := services.NewAuthService(authRepo, fileStore, conf)
	notificationService := services.NewNotificationService(notificationRepo, feed)
	conversationService := services.NewConversationService(conversationRepo, jobRepo, authRepo, fileStore, notificationService, feed, conf)
	jobService := services.NewJobService(jobRepo, notificationService, conf)

	s := &server.Server{
		Config:                 conf,
		AuthRepository:         authRepo,
		ConversationRepository: conversationRepo,
		JobRepository:          jobRepo,
		NotificationRepository: notificationRepo,
		AuthService:            authService,
		ConversationService:    conversationService,
		JobService:             jobService,
		NotificationService:    notificationService,
		Feed:                   feed,
	}

	s.Start()
}
