package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/server/response"
)

func (s *Server) handleCreateJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var request models.CreateJobRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		job, apiErr := s.JobService.CreateJob(session, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "job posted", http.StatusCreated, job, nil)
	}
}

// handleListOpenJobs returns the unassigned jobs, the leads tradies browse.
func (s *Server) handleListOpenJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := s.JobService.ListOpenJobs()
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "open jobs", http.StatusOK, jobs, nil)
	}
}

func (s *Server) handleListMyJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := currentSession(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		jobs, err := s.JobService.ListMyJobs(session)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "jobs", http.StatusOK, jobs, nil)
	}
}

func (s *Server) handleGetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, err := uuid.Parse(c.Param("jobID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid job id", http.StatusBadRequest))
			return
		}

		job, apiErr := s.JobService.GetJob(jobID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "job", http.StatusOK, job, nil)
	}
}

func (s *Server) handleAssignTradie() gin.HandlerFunc {
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
		tradieID, err := parseUintParam(c, "tradieID")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid tradie id", http.StatusBadRequest))
			return
		}

		if apiErr := s.JobService.AssignTradie(session, jobID, tradieID); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "tradie assigned", http.StatusOK, nil, nil)
	}
}
