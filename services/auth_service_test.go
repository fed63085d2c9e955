package services

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	"github.com/locentra/locentra-api/models"
)

func newAuthService(f *conversationFixture) AuthService {
	return NewAuthService(db.NewAuthRepo(f.gdb), f.fileStore, &config.Config{JWTSecret: "test-secret"})
}

func TestSignupAndLogin(t *testing.T) {
	f := newConversationFixture(t)
	svc := newAuthService(f)

	user, err := svc.SignupUser(&models.SignupRequest{
		Fullname: "Riley Fletcher",
		Username: "riley.fletcher",
		Email:    "riley@example.test",
		Password: "hunter22",
		Role:     models.RoleTradie,
		Trade:    "plumber",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTradie, user.Role.Name)
	assert.Empty(t, user.Password)

	resp, apiErr := svc.LoginUser(&models.LoginRequest{Email: "riley@example.test", Password: "hunter22"})
	require.Nil(t, apiErr)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleTradie, resp.RoleName)

	_, apiErr = svc.LoginUser(&models.LoginRequest{Email: "riley@example.test", Password: "wrong"})
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

	_, apiErr = svc.LoginUser(&models.LoginRequest{Email: "nobody@example.test", Password: "hunter22"})
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestSignupRejectsDuplicateEmailAndShortPassword(t *testing.T) {
	f := newConversationFixture(t)
	svc := newAuthService(f)

	_, err := svc.SignupUser(&models.SignupRequest{
		Fullname: "Riley Fletcher",
		Username: "riley.fletcher",
		Email:    f.homeowner.Email,
		Password: "hunter22",
		Role:     models.RoleTradie,
	})
	assert.Error(t, err)

	_, err = svc.SignupUser(&models.SignupRequest{
		Fullname: "Riley Fletcher",
		Username: "riley.fletcher",
		Email:    "riley@example.test",
		Password: "tiny",
		Role:     models.RoleTradie,
	})
	assert.Error(t, err)
}

func TestUpdateAvatar(t *testing.T) {
	f := newConversationFixture(t)
	svc := newAuthService(f)
	owner := session(f.homeowner, models.RoleHomeowner)

	avatarURL, apiErr := svc.UpdateAvatar(context.Background(), owner, "me 2024.png", bytes.NewReader(pngBytes(t)))
	require.Nil(t, apiErr)
	assert.True(t, strings.HasPrefix(avatarURL, "https://files.test/avatars/"))
	assert.NotContains(t, avatarURL, " ")

	stored, err := db.NewAuthRepo(f.gdb).FindUserByID(f.homeowner.ID)
	require.NoError(t, err)
	assert.Equal(t, avatarURL, stored.AvatarURL)

	f.fileStore.fail = true
	_, apiErr = svc.UpdateAvatar(context.Background(), owner, "me.png", bytes.NewReader(pngBytes(t)))
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	stored, err = db.NewAuthRepo(f.gdb).FindUserByID(f.homeowner.ID)
	require.NoError(t, err)
	assert.Equal(t, avatarURL, stored.AvatarURL, "failed upload leaves the previous avatar")
}
