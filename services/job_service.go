package services

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	apiError "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/models"
	"gorm.io/gorm"
)

// JobService interface
type JobService interface {
	CreateJob(session models.AuthSession, request *models.CreateJobRequest) (*models.Job, *apiError.Error)
	GetJob(jobID uuid.UUID) (*models.Job, *apiError.Error)
	ListOpenJobs() ([]models.Job, error)
	ListMyJobs(session models.AuthSession) ([]models.Job, error)
	AssignTradie(session models.AuthSession, jobID uuid.UUID, tradieID uint) *apiError.Error
}

// jobService struct
type jobService struct {
	Config   *config.Config
	jobRepo  db.JobRepository
	notifier NotificationService
}

// NewJobService creates a new instance of JobService
func NewJobService(jobRepo db.JobRepository, notifier NotificationService, conf *config.Config) JobService {
	return &jobService{
		Config:   conf,
		jobRepo:  jobRepo,
		notifier: notifier,
	}
}

func (s *jobService) CreateJob(session models.AuthSession, request *models.CreateJobRequest) (*models.Job, *apiError.Error) {
	if !session.IsHomeowner() {
		return nil, apiError.New("only homeowners can post jobs", http.StatusForbidden)
	}

	job := &models.Job{
		ID:          uuid.New(),
		HomeownerID: session.UserID,
		Title:       request.Title,
		Description: request.Description,
		Suburb:      request.Suburb,
		Status:      models.JobStatusOpen,
	}
	if err := s.jobRepo.CreateJob(job); err != nil {
		log.Printf("CreateJob: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return job, nil
}

func (s *jobService) GetJob(jobID uuid.UUID) (*models.Job, *apiError.Error) {
	job, err := s.jobRepo.GetJob(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("job not found", http.StatusNotFound)
		}
		log.Printf("GetJob %s: %v", jobID, err)
		return nil, apiError.ErrInternalServerError
	}
	return job, nil
}

func (s *jobService) ListOpenJobs() ([]models.Job, error) {
	return s.jobRepo.ListOpenJobs()
}

func (s *jobService) ListMyJobs(session models.AuthSession) ([]models.Job, error) {
	return s.jobRepo.ListJobsByHomeowner(session.UserID)
}

// AssignTradie hands the job to a tradie. Only the posting homeowner may
// assign; the tradie is notified over the feed.
func (s *jobService) AssignTradie(session models.AuthSession, jobID uuid.UUID, tradieID uint) *apiError.Error {
	job, apiErr := s.GetJob(jobID)
	if apiErr != nil {
		return apiErr
	}
	if job.HomeownerID != session.UserID {
		return apiError.New("job belongs to another homeowner", http.StatusForbidden)
	}

	if err := s.jobRepo.AssignTradie(jobID, tradieID); err != nil {
		log.Printf("AssignTradie %s -> %d: %v", jobID, tradieID, err)
		return apiError.ErrInternalServerError
	}

	if s.notifier != nil {
		n := models.NewJobNotification(tradieID, jobID, "Job assigned",
			"You have been assigned to \""+job.Title+"\"", models.NotificationSuccess)
		if err := s.notifier.Notify(n); err != nil {
			log.Printf("AssignTradie: notify tradie: %v", err)
		}
	}
	return nil
}
