package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	apiError "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService interface
type AuthService interface {
	SignupUser(request *models.SignupRequest) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	LogoutUser(accessToken string) error
	GetUserProfile(userID uint) (*models.User, error)
	UpdateAvatar(ctx context.Context, session models.AuthSession, filename string, file io.Reader) (string, *apiError.Error)
}

// authService struct
type authService struct {
	Config    *config.Config
	authRepo  db.AuthRepository
	fileStore FileStore
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, fileStore FileStore, conf *config.Config) AuthService {
	return &authService{
		Config:    conf,
		authRepo:  authRepo,
		fileStore: fileStore,
	}
}

func (a *authService) SignupUser(request *models.SignupRequest) (*models.User, error) {
	if errs := models.ValidateStruct(request); len(errs) > 0 {
		return nil, apiError.New(errs[0].Error(), http.StatusBadRequest)
	}

	if err := models.ValidatePassword(request.Password); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	if err := a.authRepo.IsEmailExist(request.Email); err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, apiError.GetUniqueContraintError(err)
	}

	role, err := a.authRepo.FindRoleByName(request.Role)
	if err != nil {
		log.Printf("SignupUser error fetching role %q: %v", request.Role, err)
		return nil, apiError.ErrInternalServerError
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user := &models.User{
		Fullname:       request.Fullname,
		Username:       request.Username,
		Email:          request.Email,
		Telephone:      request.Telephone,
		HashedPassword: string(hashedPassword),
		Trade:          request.Trade,
		Suburb:         request.Suburb,
		IsActive:       true,
		RoleID:         role.ID,
	}

	user, err = a.authRepo.CreateUser(user)
	if err != nil {
		log.Printf("SignupUser error creating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	createdUser, err := a.authRepo.FindUserByEmail(user.Email)
	if err != nil {
		log.Printf("SignupUser error fetching created user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	return createdUser, nil
}

// LoginUser logs in a user and returns the login response
func (a *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := a.authRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("invalid email or password", http.StatusUnprocessableEntity)
		}
		log.Printf("Error finding user by email: %v", err)
		return nil, apiError.New("unable to find user", http.StatusInternalServerError)
	}

	if err := foundUser.VerifyPassword(loginRequest.Password); err != nil {
		log.Printf("Invalid password for user %s", foundUser.Email)
		return nil, apiError.ErrInvalidPassword
	}

	roleName := foundUser.Role.Name
	if roleName == "" {
		role, err := a.authRepo.FindRoleByID(foundUser.RoleID)
		if err != nil {
			log.Printf("Error fetching role for user %s: %v", foundUser.Email, err)
			return nil, apiError.New("unable to fetch role", http.StatusInternalServerError)
		}
		roleName = role.Name
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(foundUser.Email, a.Config.JWTSecret, foundUser.ID, roleName)
	if err != nil {
		log.Printf("Error generating token pair for user %s: %v", foundUser.Email, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: models.UserResponse{
			ID:        foundUser.ID,
			Fullname:  foundUser.Fullname,
			Username:  foundUser.Username,
			Telephone: foundUser.Telephone,
			Email:     foundUser.Email,
			AvatarURL: foundUser.AvatarURL,
			RoleName:  roleName,
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// LogoutUser blacklists the access token so it can no longer authorize.
func (a *authService) LogoutUser(accessToken string) error {
	return a.authRepo.AddToBlackList(&models.Blacklist{Token: accessToken})
}

func (a *authService) GetUserProfile(userID uint) (*models.User, error) {
	user, err := a.authRepo.FindUserByID(userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar uploads the new profile picture and stores its public URL on
// the user row. The avatar shows up denormalized in conversation summaries.
func (a *authService) UpdateAvatar(ctx context.Context, session models.AuthSession, filename string, file io.Reader) (string, *apiError.Error) {
	key := fmt.Sprintf("avatars/%d_%s", session.UserID, SanitizeFilename(filename))
	avatarURL, err := a.fileStore.Save(ctx, key, file)
	if err != nil {
		log.Printf("UpdateAvatar: upload failed: %v", err)
		return "", apiError.New("failed to upload avatar", http.StatusBadGateway)
	}

	if err := a.authRepo.UpdateUserAvatar(session.UserID, avatarURL); err != nil {
		log.Printf("UpdateAvatar: saving url: %v", err)
		return "", apiError.ErrInternalServerError
	}
	return avatarURL, nil
}
