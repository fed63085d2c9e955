package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.SignupRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		user, err := s.AuthService.SignupUser(&request)
		if err != nil {
			if apiErr, ok := err.(*errs.Error); ok {
				response.JSON(c, "", apiErr.Status, nil, apiErr)
				return
			}
			response.JSON(c, "", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "signup successful", http.StatusCreated, models.UserResponse{
			ID:        user.ID,
			Fullname:  user.Fullname,
			Username:  user.Username,
			Telephone: user.Telephone,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
			RoleName:  user.Role.Name,
		}, nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := c.ShouldBindJSON(&loginRequest); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		loginResponse, apiErr := s.AuthService.LoginUser(&loginRequest)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, _ := c.Get("access_token")
		token, ok := accessToken.(string)
		if !ok || token == "" {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		if err := s.AuthService.LogoutUser(token); err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUpdateAvatar() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("avatar file is required", http.StatusBadRequest))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		defer file.Close()

		avatarURL, apiErr := s.AuthService.UpdateAvatar(c.Request.Context(), session, fileHeader.Filename, file)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "avatar updated", http.StatusOK, gin.H{"avatar_url": avatarURL}, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		user, err := s.AuthService.GetUserProfile(session.UserID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		response.JSON(c, "profile", http.StatusOK, models.UserResponse{
			ID:        user.ID,
			Fullname:  user.Fullname,
			Username:  user.Username,
			Telephone: user.Telephone,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
			RoleName:  user.Role.Name,
		}, nil)
	}
}
