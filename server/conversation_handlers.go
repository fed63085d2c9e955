package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/server/response"
)

type startConversationRequest struct {
	TradieID uint `json:"tradie_id"`
}

func (s *Server) handleStartConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		jobID, err := uuid.Parse(c.Param("jobID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid job id", http.StatusBadRequest))
			return
		}

		var request startConversationRequest
		// body is optional for tradies; the counterpart is the job's homeowner
		_ = c.ShouldBindJSON(&request)

		conv, apiErr := s.ConversationService.StartConversation(session, jobID, request.TradieID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "conversation ready", http.StatusCreated, conv, nil)
	}
}

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		summaries, err := s.ConversationService.ListConversations(session)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "conversations", http.StatusOK, summaries, nil)
	}
}

// handleOpenConversation returns the thread history. Opening it marks every
// unread counterpart message read, matching the selection behavior of the
// thread pane.
func (s *Server) handleOpenConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, conversationID, apiErr := s.conversationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		messages, svcErr := s.ConversationService.OpenConversation(session, conversationID)
		if svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "messages", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleSendText() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, conversationID, apiErr := s.conversationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		var request models.SendMessageRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		msg, svcErr := s.ConversationService.SendText(session, conversationID, request.Body)
		if svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "message sent", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleSendImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, conversationID, apiErr := s.conversationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("image file is required", http.StatusBadRequest))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		defer file.Close()

		msg, svcErr := s.ConversationService.SendImage(c.Request.Context(), session, conversationID, fileHeader.Filename, file)
		if svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "image sent", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleMarkConversationRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, conversationID, apiErr := s.conversationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		flipped, svcErr := s.ConversationService.MarkConversationRead(session, conversationID)
		if svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "messages read", http.StatusOK, gin.H{"read": flipped}, nil)
	}
}

func (s *Server) handleCanMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, conversationID, apiErr := s.conversationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		allowed, svcErr := s.ConversationService.CanMessage(session, conversationID)
		if svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "can message", http.StatusOK, gin.H{"can_message": allowed}, nil)
	}
}

func (s *Server) handleDeleteConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, conversationID, apiErr := s.conversationRequest(c)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		if svcErr := s.ConversationService.DeleteConversation(session, conversationID); svcErr != nil {
			response.JSON(c, "", svcErr.Status, nil, svcErr)
			return
		}
		response.JSON(c, "conversation deleted", http.StatusOK, nil, nil)
	}
}

// conversationRequest pulls the session and conversation id every thread
// endpoint needs.
func (s *Server) conversationRequest(c *gin.Context) (models.AuthSession, uuid.UUID, *errs.Error) {
	session, ok := currentSession(c)
	if !ok {
		return models.AuthSession{}, uuid.Nil, errs.ErrUnauthorized
	}
	conversationID, err := uuid.Parse(c.Param("conversationID"))
	if err != nil {
		return models.AuthSession{}, uuid.Nil, errs.New("invalid conversation id", http.StatusBadRequest)
	}
	return session, conversationID, nil
}

// parseUintParam parses a numeric path parameter.
func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	return uint(v), err
}
