package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	"github.com/locentra/locentra-api/realtime"
	"github.com/locentra/locentra-api/services"
)

// Server wires the HTTP surface to the repositories, services, and the
// change feed hub.
type Server struct {
	Config                 *config.Config
	AuthRepository         db.AuthRepository
	ConversationRepository db.ConversationRepository
	JobRepository          db.JobRepository
	NotificationRepository db.NotificationRepository
	AuthService            services.AuthService
	ConversationService    services.ConversationService
	JobService             services.JobService
	NotificationService    services.NotificationService
	Feed                   *realtime.Hub
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the feed.
func (s *Server) Start() {
	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		log.Printf("listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	if s.Feed != nil {
		s.Feed.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}
