package db

import (
	"fmt"

	"github.com/locentra/locentra-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/google/uuid"
	apiError "github.com/locentra/locentra-api/errors"
)

// AuthRepository interface
type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	FindRoleByID(id uuid.UUID) (*models.Role, error)
	FindRoleByName(name string) (*models.Role, error)
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
	UpdateUserAvatar(userID uint, avatarURL string) error
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	err := a.DB.Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("could not create user: %v", err)
	}
	return user, nil
}

func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return fmt.Errorf("email already in use")
	}
	return nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := a.DB.Preload("Role").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	err := a.DB.Preload("Role").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apiError.InActiveUserError
	}
	return &user, nil
}

func (a *authRepo) FindRoleByID(id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := a.DB.Where("id = ?", id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (a *authRepo) FindRoleByName(name string) (*models.Role, error) {
	var role models.Role
	if err := a.DB.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	err := a.DB.Create(blacklist).Error
	return errors.Wrap(err, "gorm.create error")
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count)
	return count > 0
}

func (a *authRepo) UpdateUserAvatar(userID uint, avatarURL string) error {
	err := a.DB.Model(&models.User{}).Where("id = ?", userID).Update("avatar_url", avatarURL).Error
	return errors.Wrap(err, "gorm.update error")
}
