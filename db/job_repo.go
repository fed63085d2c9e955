package db

import (
	"github.com/google/uuid"
	"github.com/locentra/locentra-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// JobRepository interface
type JobRepository interface {
	CreateJob(job *models.Job) error
	GetJob(id uuid.UUID) (*models.Job, error)
	ListOpenJobs() ([]models.Job, error)
	ListJobsByHomeowner(homeownerID uint) ([]models.Job, error)
	AssignTradie(jobID uuid.UUID, tradieID uint) error
}

type jobRepo struct {
	DB *gorm.DB
}

func NewJobRepo(db *GormDB) JobRepository {
	return &jobRepo{db.DB}
}

func (r *jobRepo) CreateJob(job *models.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if err := r.DB.Create(job).Error; err != nil {
		return errors.Wrap(err, "gorm.create error")
	}
	return nil
}

func (r *jobRepo) GetJob(id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.DB.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListOpenJobs returns unassigned jobs, newest first. These are the leads
// tradies browse.
func (r *jobRepo) ListOpenJobs() ([]models.Job, error) {
	var jobs []models.Job
	err := r.DB.Where("status = ?", models.JobStatusOpen).
		Order("created_at DESC, id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm.find error")
	}
	return jobs, nil
}

func (r *jobRepo) ListJobsByHomeowner(homeownerID uint) ([]models.Job, error) {
	var jobs []models.Job
	err := r.DB.Where("homeowner_id = ?", homeownerID).
		Order("created_at DESC, id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm.find error")
	}
	return jobs, nil
}

func (r *jobRepo) AssignTradie(jobID uuid.UUID, tradieID uint) error {
	err := r.DB.Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"assigned_tradie_id": tradieID,
			"status":             models.JobStatusAssigned,
		}).Error
	return errors.Wrap(err, "gorm.update error")
}
