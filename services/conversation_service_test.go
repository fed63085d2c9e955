package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	"github.com/locentra/locentra-api/models"
)

// fakeFileStore stands in for S3 so composer tests run without the network.
type fakeFileStore struct {
	fail  bool
	saved map[string][]byte
}

func (f *fakeFileStore) Save(ctx context.Context, key string, body io.Reader) (string, error) {
	if f.fail {
		return "", errors.New("object store unavailable")
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[key] = content
	return "https://files.test/" + key, nil
}

type conversationFixture struct {
	gdb              *db.GormDB
	conversationRepo db.ConversationRepository
	jobRepo          db.JobRepository
	fileStore        *fakeFileStore
	notificationRepo db.NotificationRepository
	svc              ConversationService

	homeowner *models.User
	tradie    *models.User
	job       *models.Job
	conv      *models.Conversation
}

func newConversationFixture(t *testing.T) *conversationFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	gdb := &db.GormDB{DB: gormDB}

	f := &conversationFixture{
		gdb:              gdb,
		conversationRepo: db.NewConversationRepo(gdb),
		jobRepo:          db.NewJobRepo(gdb),
		fileStore:        &fakeFileStore{},
		notificationRepo: db.NewNotificationRepo(gdb),
	}

	notifier := NewNotificationService(f.notificationRepo, nil)
	f.svc = NewConversationService(
		f.conversationRepo,
		f.jobRepo,
		db.NewAuthRepo(gdb),
		f.fileStore,
		notifier,
		nil,
		&config.Config{},
	)

	f.homeowner = f.createUser(t, "Olivia Nguyen", models.RoleHomeowner)
	f.tradie = f.createUser(t, "Jack Miller", models.RoleTradie)
	f.job = &models.Job{
		ID:          uuid.New(),
		HomeownerID: f.homeowner.ID,
		Title:       "Fix back fence",
		Status:      models.JobStatusOpen,
	}
	require.NoError(t, f.jobRepo.CreateJob(f.job))

	conv, err := f.conversationRepo.FindOrCreateConversation(&models.Conversation{
		HomeownerID: f.homeowner.ID,
		TradieID:    f.tradie.ID,
		JobID:       f.job.ID,
	})
	require.NoError(t, err)
	f.conv = conv
	return f
}

func (f *conversationFixture) createUser(t *testing.T, fullname, roleName string) *models.User {
	t.Helper()
	var role models.Role
	require.NoError(t, f.gdb.DB.Where("name = ?", roleName).First(&role).Error)

	slug := strings.ToLower(strings.ReplaceAll(fullname, " ", "."))
	user := &models.User{
		Fullname:       fullname,
		Username:       slug,
		Email:          fmt.Sprintf("%s@%s.test", slug, strings.ToLower(strings.ReplaceAll(t.Name(), "/", "."))),
		HashedPassword: "irrelevant",
		IsActive:       true,
		RoleID:         role.ID,
	}
	require.NoError(t, f.gdb.DB.Create(user).Error)
	return user
}

func session(u *models.User, role string) models.AuthSession {
	return models.AuthSession{UserID: u.ID, Role: role}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	return buf.Bytes()
}

func TestSendTextInsertsAndNotifiesCounterpart(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)

	msg, apiErr := f.svc.SendText(owner, f.conv.ID, "  can you start Monday?  ")
	require.Nil(t, apiErr)
	assert.Equal(t, "can you start Monday?", msg.Body, "body is trimmed before insert")

	messages, err := f.conversationRepo.ListMessages(f.conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, f.homeowner.ID, messages[0].SenderID)

	conv, err := f.conversationRepo.GetConversation(f.conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "can you start Monday?", conv.LastMessage)

	notifications, err := f.notificationRepo.ListNotifications(f.tradie.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.RelatedMessage, notifications[0].RelatedKind)
	require.NotNil(t, notifications[0].RelatedMessageID)
	assert.Equal(t, msg.ID, *notifications[0].RelatedMessageID)
	assert.Equal(t, "Olivia Nguyen", notifications[0].RelatedName)
}

func TestSendTextRejectsBlankBody(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)

	for _, body := range []string{"", "   ", "\n\t  "} {
		msg, apiErr := f.svc.SendText(owner, f.conv.ID, body)
		require.NotNil(t, apiErr)
		assert.Nil(t, msg)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	}

	messages, err := f.conversationRepo.ListMessages(f.conv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages, "a rejected send leaves no row behind")
}

func TestSendTextGateForTradies(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)
	tradie := session(f.tradie, models.RoleTradie)

	// The tradie's opening contact on an unassigned job goes through and
	// the row lands; the composer block only fires once the job is
	// assigned elsewhere.
	msg, apiErr := f.svc.SendText(tradie, f.conv.ID, "keen to quote this")
	require.Nil(t, apiErr)
	require.NotNil(t, msg)
	history, err := f.conversationRepo.ListMessages(f.conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "keen to quote this", history[0].Body)

	// The advisory gate still reads closed until the homeowner replies.
	allowed, apiErr := f.svc.CanMessage(tradie, f.conv.ID)
	require.Nil(t, apiErr)
	assert.False(t, allowed)

	_, apiErr = f.svc.SendText(owner, f.conv.ID, "are you available?")
	require.Nil(t, apiErr)

	allowed, apiErr = f.svc.CanMessage(tradie, f.conv.ID)
	require.Nil(t, apiErr)
	assert.True(t, allowed)

	_, apiErr = f.svc.SendText(tradie, f.conv.ID, "yes, Tuesday works")
	require.Nil(t, apiErr)

	// Assigning the job to a different tradie closes it again, reply
	// history notwithstanding.
	rival := f.createUser(t, "Sam Carter", models.RoleTradie)
	require.NoError(t, f.jobRepo.AssignTradie(f.job.ID, rival.ID))

	allowed, apiErr = f.svc.CanMessage(tradie, f.conv.ID)
	require.Nil(t, apiErr)
	assert.False(t, allowed)

	msg, apiErr = f.svc.SendText(tradie, f.conv.ID, "still here if it falls through")
	require.NotNil(t, apiErr)
	assert.Nil(t, msg)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	// The homeowner is never gated.
	_, apiErr = f.svc.SendText(owner, f.conv.ID, "went with someone else, sorry")
	require.Nil(t, apiErr)
}

func TestSendTextRequiresParticipation(t *testing.T) {
	f := newConversationFixture(t)
	outsider := session(f.createUser(t, "Pat Outsider", models.RoleTradie), models.RoleTradie)

	msg, apiErr := f.svc.SendText(outsider, f.conv.ID, "hello?")
	require.NotNil(t, apiErr)
	assert.Nil(t, msg)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	_, apiErr = f.svc.SendText(session(f.homeowner, models.RoleHomeowner), uuid.New(), "hello?")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestSendImageUploadFailureLeavesNoRow(t *testing.T) {
	f := newConversationFixture(t)
	f.fileStore.fail = true
	owner := session(f.homeowner, models.RoleHomeowner)

	msg, apiErr := f.svc.SendImage(context.Background(), owner, f.conv.ID, "fence.png", bytes.NewReader(pngBytes(t)))
	require.NotNil(t, apiErr)
	assert.Nil(t, msg)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	messages, err := f.conversationRepo.ListMessages(f.conv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendImageStoresFileAndThumbnail(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)

	msg, apiErr := f.svc.SendImage(context.Background(), owner, f.conv.ID, "fence photo.png", bytes.NewReader(pngBytes(t)))
	require.Nil(t, apiErr)
	require.NotNil(t, msg)
	assert.True(t, strings.HasPrefix(msg.ImageURL, "https://files.test/conversations/"))
	assert.NotContains(t, msg.ImageURL, " ", "filename is sanitized")
	assert.NotEmpty(t, msg.ThumbnailURL)
	assert.Len(t, f.fileStore.saved, 2, "original plus thumbnail")

	messages, err := f.conversationRepo.ListMessages(f.conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Empty(t, messages[0].Body)
	assert.Equal(t, msg.ImageURL, messages[0].ImageURL)
}

func TestSendImageSkipsThumbnailOnUndecodableFile(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)

	msg, apiErr := f.svc.SendImage(context.Background(), owner, f.conv.ID, "notes.bin", strings.NewReader("not an image"))
	require.Nil(t, apiErr)
	require.NotNil(t, msg)
	assert.NotEmpty(t, msg.ImageURL)
	assert.Empty(t, msg.ThumbnailURL, "thumbnail failure never blocks the send")
}

func TestOpenConversationMarksCounterpartMessagesRead(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)
	tradie := session(f.tradie, models.RoleTradie)

	_, apiErr := f.svc.SendText(owner, f.conv.ID, "send through a quote?")
	require.Nil(t, apiErr)

	messages, apiErr := f.svc.OpenConversation(tradie, f.conv.ID)
	require.Nil(t, apiErr)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsRead, "open returns current flags")

	summaries, err := f.conversationRepo.ListConversations(f.tradie.ID, models.RoleTradie)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 0, summaries[0].UnreadCount)
}

func TestMarkConversationRead(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)
	tradie := session(f.tradie, models.RoleTradie)

	_, apiErr := f.svc.SendText(owner, f.conv.ID, "photo of the fence attached")
	require.Nil(t, apiErr)
	_, apiErr = f.svc.SendText(owner, f.conv.ID, "let me know what you think")
	require.Nil(t, apiErr)

	flipped, apiErr := f.svc.MarkConversationRead(tradie, f.conv.ID)
	require.Nil(t, apiErr)
	assert.EqualValues(t, 2, flipped)

	flipped, apiErr = f.svc.MarkConversationRead(tradie, f.conv.ID)
	require.Nil(t, apiErr)
	assert.EqualValues(t, 0, flipped)

	outsider := session(f.createUser(t, "Pat Outsider", models.RoleTradie), models.RoleTradie)
	_, apiErr = f.svc.MarkConversationRead(outsider, f.conv.ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestDeleteConversation(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)
	tradie := session(f.tradie, models.RoleTradie)

	_, apiErr := f.svc.SendText(owner, f.conv.ID, "first message")
	require.Nil(t, apiErr)

	outsider := session(f.createUser(t, "Pat Outsider", models.RoleTradie), models.RoleTradie)
	apiErr = f.svc.DeleteConversation(outsider, f.conv.ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	// Either participant may delete, unilaterally.
	require.Nil(t, f.svc.DeleteConversation(tradie, f.conv.ID))

	_, apiErr = f.svc.OpenConversation(owner, f.conv.ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	summaries, err := f.svc.ListConversations(owner)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestStartConversation(t *testing.T) {
	f := newConversationFixture(t)
	owner := session(f.homeowner, models.RoleHomeowner)
	tradie := session(f.tradie, models.RoleTradie)

	// A tradie responding to a lead is paired with the job's homeowner.
	conv, apiErr := f.svc.StartConversation(tradie, f.job.ID, 0)
	require.Nil(t, apiErr)
	assert.Equal(t, f.conv.ID, conv.ID, "existing thread is reused")

	// A homeowner must name the tradie.
	_, apiErr = f.svc.StartConversation(owner, f.job.ID, 0)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	rival := f.createUser(t, "Sam Carter", models.RoleTradie)
	conv, apiErr = f.svc.StartConversation(owner, f.job.ID, rival.ID)
	require.Nil(t, apiErr)
	assert.NotEqual(t, f.conv.ID, conv.ID)
	assert.Equal(t, rival.ID, conv.TradieID)

	// Not their job, not their call.
	other := session(f.createUser(t, "Riley Homeowner", models.RoleHomeowner), models.RoleHomeowner)
	_, apiErr = f.svc.StartConversation(other, f.job.ID, rival.ID)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	_, apiErr = f.svc.StartConversation(tradie, uuid.New(), 0)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
