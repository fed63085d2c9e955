package db

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/locentra/locentra-api/models"
)

func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gormDB))
	return &GormDB{DB: gormDB}
}

func createTestUser(t *testing.T, gdb *GormDB, fullname, roleName string) *models.User {
	t.Helper()
	var role models.Role
	require.NoError(t, gdb.DB.Where("name = ?", roleName).First(&role).Error)

	slug := strings.ToLower(strings.ReplaceAll(fullname, " ", "."))
	user := &models.User{
		Fullname:       fullname,
		Username:       slug,
		Email:          fmt.Sprintf("%s@%s.test", slug, strings.ToLower(strings.ReplaceAll(t.Name(), "/", "."))),
		HashedPassword: "irrelevant",
		IsActive:       true,
		RoleID:         role.ID,
	}
	require.NoError(t, gdb.DB.Create(user).Error)
	return user
}

func createTestJob(t *testing.T, gdb *GormDB, homeownerID uint, title string) *models.Job {
	t.Helper()
	job := &models.Job{
		ID:          uuid.New(),
		HomeownerID: homeownerID,
		Title:       title,
		Status:      models.JobStatusOpen,
	}
	require.NoError(t, gdb.DB.Create(job).Error)
	return job
}

func seedConversation(t *testing.T, repo ConversationRepository, homeownerID, tradieID uint, jobID uuid.UUID) *models.Conversation {
	t.Helper()
	conv, err := repo.FindOrCreateConversation(&models.Conversation{
		HomeownerID: homeownerID,
		TradieID:    tradieID,
		JobID:       jobID,
	})
	require.NoError(t, err)
	return conv
}

func TestFindOrCreateConversationReturnsExisting(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Fix back fence")

	first := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)
	second := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, gdb.DB.Model(&models.Conversation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestListMessagesOrderedByCreation(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Repaint hallway")
	conv := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)

	base := time.Now().Add(-time.Hour)
	bodies := []string{"hi, are you available?", "yes, what suburb?", "Centra, near the oval"}
	senders := []uint{homeowner.ID, tradie.ID, homeowner.ID}
	for i := range bodies {
		require.NoError(t, repo.SaveMessage(&models.Message{
			ConversationID: conv.ID,
			SenderID:       senders[i],
			Body:           bodies[i],
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := repo.ListMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, body := range bodies {
		assert.Equal(t, body, messages[i].Body)
	}
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestSaveMessageRejectsEmptyMessage(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Repaint hallway")
	conv := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)

	err := repo.SaveMessage(&models.Message{
		ConversationID: conv.ID,
		SenderID:       homeowner.ID,
		CreatedAt:      time.Now(),
	})
	require.Error(t, err)

	messages, listErr := repo.ListMessages(conv.ID)
	require.NoError(t, listErr)
	assert.Empty(t, messages)
}

func TestDeleteConversationRemovesMessagesAndRow(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	otherTradie := createTestUser(t, gdb, "Sam Carter", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Clear gutters")

	doomed := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)
	survivor := seedConversation(t, repo, homeowner.ID, otherTradie.ID, job.ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.SaveMessage(&models.Message{
			ConversationID: doomed.ID,
			SenderID:       homeowner.ID,
			Body:           fmt.Sprintf("message %d", i),
			CreatedAt:      time.Now(),
		}))
	}
	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: survivor.ID,
		SenderID:       homeowner.ID,
		Body:           "unrelated thread",
		CreatedAt:      time.Now(),
	}))

	require.NoError(t, repo.DeleteConversation(doomed.ID))

	_, err := repo.GetConversation(doomed.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var orphaned int64
	require.NoError(t, gdb.DB.Model(&models.Message{}).Where("conversation_id = ?", doomed.ID).Count(&orphaned).Error)
	assert.EqualValues(t, 0, orphaned)

	summaries, err := repo.ListConversations(homeowner.ID, models.RoleHomeowner)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, survivor.ID, summaries[0].ID)

	remaining, err := repo.ListMessages(survivor.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestMarkMessagesReadOnlyFlipsCounterpartRows(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Tile splashback")
	conv := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)

	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: tradie.ID, Body: "quote attached", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: tradie.ID, Body: "any questions?", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: homeowner.ID, Body: "looks good", CreatedAt: time.Now(),
	}))

	flipped, err := repo.MarkMessagesRead(conv.ID, homeowner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, flipped)

	messages, err := repo.ListMessages(conv.ID)
	require.NoError(t, err)
	for _, m := range messages {
		if m.SenderID == tradie.ID {
			assert.True(t, m.IsRead)
		} else {
			assert.False(t, m.IsRead, "reader's own message must not be flipped")
		}
	}

	flipped, err = repo.MarkMessagesRead(conv.ID, homeowner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, flipped, "second open flips nothing")
}

func TestListConversationsSummariesAndUnreadCount(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Replace hot water system")
	conv := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)

	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: tradie.ID, Body: "I can come Tuesday", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: tradie.ID, Body: "or Wednesday morning", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.UpdateConversationLastMessage(conv.ID, "or Wednesday morning", time.Now()))

	summaries, err := repo.ListConversations(homeowner.ID, models.RoleHomeowner)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	got := summaries[0]
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, "Replace hot water system", got.JobTitle)
	assert.Equal(t, tradie.ID, got.CounterpartID)
	assert.Equal(t, "Jack Miller", got.CounterpartName)
	assert.Equal(t, "or Wednesday morning", got.LastMessage)
	assert.EqualValues(t, 2, got.UnreadCount)

	// The tradie sees the homeowner on the other side and no unread rows of
	// their own.
	theirSide, err := repo.ListConversations(tradie.ID, models.RoleTradie)
	require.NoError(t, err)
	require.Len(t, theirSide, 1)
	assert.Equal(t, homeowner.ID, theirSide[0].CounterpartID)
	assert.Equal(t, "Olivia Nguyen", theirSide[0].CounterpartName)
	assert.EqualValues(t, 0, theirSide[0].UnreadCount)

	// A pure read: calling again returns the identical sequence.
	again, err := repo.ListConversations(homeowner.ID, models.RoleHomeowner)
	require.NoError(t, err)
	assert.Equal(t, summaries, again)
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradieA := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	tradieB := createTestUser(t, gdb, "Sam Carter", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Build deck")

	older := seedConversation(t, repo, homeowner.ID, tradieA.ID, job.ID)
	newer := seedConversation(t, repo, homeowner.ID, tradieB.ID, job.ID)

	now := time.Now()
	require.NoError(t, repo.UpdateConversationLastMessage(older.ID, "first quote", now.Add(-time.Hour)))
	require.NoError(t, repo.UpdateConversationLastMessage(newer.ID, "second quote", now))

	summaries, err := repo.ListConversations(homeowner.ID, models.RoleHomeowner)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.ID, summaries[0].ID)
	assert.Equal(t, older.ID, summaries[1].ID)
}

func TestHasCounterpartReply(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewConversationRepo(gdb)

	homeowner := createTestUser(t, gdb, "Olivia Nguyen", models.RoleHomeowner)
	tradie := createTestUser(t, gdb, "Jack Miller", models.RoleTradie)
	job := createTestJob(t, gdb, homeowner.ID, "Mow nature strip")
	conv := seedConversation(t, repo, homeowner.ID, tradie.ID, job.ID)

	hasReply, err := repo.HasCounterpartReply(conv.ID, tradie.ID)
	require.NoError(t, err)
	assert.False(t, hasReply)

	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: tradie.ID, Body: "happy to quote", CreatedAt: time.Now(),
	}))

	hasReply, err = repo.HasCounterpartReply(conv.ID, tradie.ID)
	require.NoError(t, err)
	assert.False(t, hasReply, "own messages are not counterpart replies")

	require.NoError(t, repo.SaveMessage(&models.Message{
		ConversationID: conv.ID, SenderID: homeowner.ID, Body: "yes please", CreatedAt: time.Now(),
	}))

	hasReply, err = repo.HasCounterpartReply(conv.ID, tradie.ID)
	require.NoError(t, err)
	assert.True(t, hasReply)
}
