package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())
	r.Use(Metrics())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Second, Limit: 5})
	limitSendRate := limitRateForMessageSend(store)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", s.handleLogin())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.PUT("/me/avatar", s.handleUpdateAvatar())

	authorized.POST("/jobs", s.handleCreateJob())
	authorized.GET("/jobs", s.handleListOpenJobs())
	authorized.GET("/jobs/mine", s.handleListMyJobs())
	authorized.GET("/jobs/:jobID", s.handleGetJob())
	authorized.PUT("/jobs/:jobID/assign/:tradieID", s.handleAssignTradie())
	authorized.POST("/jobs/:jobID/conversations", s.handleStartConversation())

	authorized.GET("/conversations", s.handleListConversations())
	authorized.GET("/conversations/:conversationID/messages", s.handleOpenConversation())
	authorized.POST("/conversations/:conversationID/messages", limitSendRate, s.handleSendText())
	authorized.POST("/conversations/:conversationID/images", limitSendRate, s.handleSendImage())
	authorized.POST("/conversations/:conversationID/read", s.handleMarkConversationRead())
	authorized.GET("/conversations/:conversationID/can-message", s.handleCanMessage())
	authorized.DELETE("/conversations/:conversationID", s.handleDeleteConversation())

	authorized.GET("/notifications", s.handleListNotifications())
	authorized.PUT("/notifications/:notificationID/read", s.handleMarkNotificationRead())
	authorized.DELETE("/notifications/:notificationID", s.handleDeleteNotification())

	authorized.GET("/ws", s.handleFeedSubscribe())
}
