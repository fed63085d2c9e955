package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/server/response"
)

func (s *Server) handleListNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		notifications, err := s.NotificationService.ListNotifications(session)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "notifications", http.StatusOK, notifications, nil)
	}
}

func (s *Server) handleMarkNotificationRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, notificationID, apiErr := s.notificationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		if err := s.NotificationService.MarkRead(session, notificationID); err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "notification read", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleDeleteNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, notificationID, apiErr := s.notificationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		if err := s.NotificationService.Delete(session, notificationID); err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "notification deleted", http.StatusOK, nil, nil)
	}
}

func (s *Server) notificationRequest(c *gin.Context) (models.AuthSession, uuid.UUID, *errs.Error) {
	session, ok := currentSession(c)
	if !ok {
		return models.AuthSession{}, uuid.Nil, errs.ErrUnauthorized
	}
	notificationID, err := uuid.Parse(c.Param("notificationID"))
	if err != nil {
		return models.AuthSession{}, uuid.Nil, errs.New("invalid notification id", http.StatusBadRequest)
	}
	return session, notificationID, nil
}
