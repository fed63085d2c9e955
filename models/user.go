package models

import (
	"errors"
	"fmt"

	goval "github.com/go-passwd/validator"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// Role names seeded at startup.
const (
	RoleHomeowner = "homeowner"
	RoleTradie    = "tradie"
)

// User represents a marketplace user: a Centra Resident (homeowner) posting
// jobs, or a tradie responding to them.
type User struct {
	Model
	Fullname       string    `json:"fullname" binding:"required,min=2" conform:"trim"`
	Username       string    `json:"username" binding:"required,min=2" conform:"trim,lower"`
	Email          string    `json:"email" gorm:"unique;not null" binding:"required,email" conform:"trim,lower"`
	Telephone      string    `json:"telephone" gorm:"default:null"`
	Password       string    `json:"password,omitempty" gorm:"-"`
	HashedPassword string    `json:"-"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Trade          string    `json:"trade,omitempty"`
	Suburb         string    `json:"suburb,omitempty"`
	IsActive       bool      `json:"-" gorm:"default:true"`
	RoleID         uuid.UUID `gorm:"type:uuid" json:"role_id"`
	Role           Role      `gorm:"foreignKey:RoleID" json:"role"`
}

// AuthSession is the explicit current-user context handed to every service
// call that needs it. It replaces ad hoc ambient reads of the logged-in user.
type AuthSession struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

func (s AuthSession) IsHomeowner() bool { return s.Role == RoleHomeowner }
func (s AuthSession) IsTradie() bool    { return s.Role == RoleTradie }

type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"unique;not null" json:"name"`
}

type Blacklist struct {
	Model
	Email string `json:"email"`
	Token string `json:"token"`
}

type SignupRequest struct {
	Fullname  string `json:"fullname" binding:"required,min=2" conform:"trim"`
	Username  string `json:"username" binding:"required,min=2" conform:"trim,lower"`
	Email     string `json:"email" binding:"required,email" conform:"trim,lower"`
	Telephone string `json:"telephone" conform:"trim"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=homeowner tradie" conform:"trim,lower"`
	Trade     string `json:"trade" conform:"trim,lower"`
	Suburb    string `json:"suburb" conform:"trim"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Fullname  string `json:"fullname"`
	Username  string `json:"username"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	RoleName  string `json:"role_name"`
}

type LoginResponse struct {
	UserResponse
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(64, errors.New("password cant be more than 64 characters")))
	return passwordValidator.Validate(password)
}

// ValidateWhiteSpaces trims and normalizes tagged string fields in place.
func ValidateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

// ValidateStruct normalizes the request in place, then runs the binding-tag
// rules against it, returning translated errors. Services call this so the
// rules hold even when a request does not arrive through gin's binder.
func ValidateStruct(req interface{}) []error {
	if err := ValidateWhiteSpaces(req); err != nil {
		return []error{err}
	}

	validate := validator.New()
	validate.SetTagName("binding")
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return TranslateError(validate.Struct(req), trans)
}

func TranslateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}
