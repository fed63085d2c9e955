package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/db"
	apiError "github.com/locentra/locentra-api/errors"
	"github.com/locentra/locentra-api/metrics"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/realtime"
	"gorm.io/gorm"
)

// ConversationService is the messaging core: listing a user's conversations,
// opening a thread, composing text and image messages, and deleting a
// conversation. Every write is gated server-side on participation and on the
// job-assignment access rule.
type ConversationService interface {
	StartConversation(session models.AuthSession, jobID uuid.UUID, tradieID uint) (*models.Conversation, *apiError.Error)
	ListConversations(session models.AuthSession) ([]models.ConversationSummary, error)
	OpenConversation(session models.AuthSession, conversationID uuid.UUID) ([]models.Message, *apiError.Error)
	MarkConversationRead(session models.AuthSession, conversationID uuid.UUID) (int64, *apiError.Error)
	CanMessage(session models.AuthSession, conversationID uuid.UUID) (bool, *apiError.Error)
	SendText(session models.AuthSession, conversationID uuid.UUID, body string) (*models.Message, *apiError.Error)
	SendImage(ctx context.Context, session models.AuthSession, conversationID uuid.UUID, filename string, file io.Reader) (*models.Message, *apiError.Error)
	DeleteConversation(session models.AuthSession, conversationID uuid.UUID) *apiError.Error
}

type conversationService struct {
	Config           *config.Config
	conversationRepo db.ConversationRepository
	jobRepo          db.JobRepository
	authRepo         db.AuthRepository
	fileStore        FileStore
	notifier         NotificationService
	feed             *realtime.Hub
}

func NewConversationService(
	conversationRepo db.ConversationRepository,
	jobRepo db.JobRepository,
	authRepo db.AuthRepository,
	fileStore FileStore,
	notifier NotificationService,
	feed *realtime.Hub,
	conf *config.Config,
) ConversationService {
	return &conversationService{
		Config:           conf,
		conversationRepo: conversationRepo,
		jobRepo:          jobRepo,
		authRepo:         authRepo,
		fileStore:        fileStore,
		notifier:         notifier,
		feed:             feed,
	}
}

// StartConversation opens (or returns) the conversation between the job's
// homeowner and a tradie. A homeowner starts it with a tradie of their
// choosing on their own job; a tradie starts it with the job's homeowner.
func (s *conversationService) StartConversation(session models.AuthSession, jobID uuid.UUID, tradieID uint) (*models.Conversation, *apiError.Error) {
	job, err := s.jobRepo.GetJob(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("job not found", http.StatusNotFound)
		}
		log.Printf("StartConversation: fetching job %s: %v", jobID, err)
		return nil, apiError.ErrInternalServerError
	}

	conv := &models.Conversation{JobID: jobID}
	switch {
	case session.IsHomeowner():
		if job.HomeownerID != session.UserID {
			return nil, apiError.New("job belongs to another homeowner", http.StatusForbidden)
		}
		if tradieID == 0 {
			return nil, apiError.New("tradie_id is required", http.StatusBadRequest)
		}
		conv.HomeownerID = session.UserID
		conv.TradieID = tradieID
	case session.IsTradie():
		conv.HomeownerID = job.HomeownerID
		conv.TradieID = session.UserID
	default:
		return nil, apiError.ErrForbidden
	}

	created, err := s.conversationRepo.FindOrCreateConversation(conv)
	if err != nil {
		log.Printf("StartConversation: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return created, nil
}

func (s *conversationService) ListConversations(session models.AuthSession) ([]models.ConversationSummary, error) {
	return s.conversationRepo.ListConversations(session.UserID, session.Role)
}

// OpenConversation loads the thread for display. Opening marks every unread
// counterpart message as read before the history fetch, so the returned
// rows carry current flags; the caller's own messages are never flipped.
func (s *conversationService) OpenConversation(session models.AuthSession, conversationID uuid.UUID) ([]models.Message, *apiError.Error) {
	conv, apiErr := s.participantConversation(session, conversationID)
	if apiErr != nil {
		return nil, apiErr
	}

	if _, err := s.conversationRepo.MarkMessagesRead(conv.ID, session.UserID); err != nil {
		log.Printf("OpenConversation: mark read %s: %v", conv.ID, err)
	}

	messages, err := s.conversationRepo.ListMessages(conv.ID)
	if err != nil {
		log.Printf("OpenConversation: list messages %s: %v", conv.ID, err)
		return nil, apiError.ErrInternalServerError
	}
	return messages, nil
}

// MarkConversationRead flips the read flag on the caller's unread
// counterpart messages without fetching the history.
func (s *conversationService) MarkConversationRead(session models.AuthSession, conversationID uuid.UUID) (int64, *apiError.Error) {
	conv, apiErr := s.participantConversation(session, conversationID)
	if apiErr != nil {
		return 0, apiErr
	}

	flipped, err := s.conversationRepo.MarkMessagesRead(conv.ID, session.UserID)
	if err != nil {
		log.Printf("MarkConversationRead %s: %v", conv.ID, err)
		return 0, apiError.ErrInternalServerError
	}
	return flipped, nil
}

// CanMessage evaluates the access gate for the caller against the
// conversation's job and reply history.
func (s *conversationService) CanMessage(session models.AuthSession, conversationID uuid.UUID) (bool, *apiError.Error) {
	conv, apiErr := s.participantConversation(session, conversationID)
	if apiErr != nil {
		return false, apiErr
	}
	return s.evaluateGate(session, conv)
}

// SendText inserts a text message. Empty or whitespace-only bodies are
// rejected without touching the store; the composer block is applied here as
// well as at the surface, so calling the service directly cannot bypass it.
func (s *conversationService) SendText(session models.AuthSession, conversationID uuid.UUID, body string) (*models.Message, *apiError.Error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, apiError.New("message body is empty", http.StatusUnprocessableEntity)
	}

	conv, apiErr := s.participantConversation(session, conversationID)
	if apiErr != nil {
		return nil, apiErr
	}
	if apiErr := s.requireGate(session, conv); apiErr != nil {
		return nil, apiErr
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       session.UserID,
		Body:           trimmed,
		CreatedAt:      time.Now(),
	}
	if err := s.conversationRepo.SaveMessage(msg); err != nil {
		log.Printf("SendText: save message: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	metrics.MessagesSent.WithLabelValues("text").Inc()

	s.afterInsert(session, conv, msg, trimmed)
	return msg, nil
}

// SendImage uploads the file to object storage under a key namespaced by
// conversation id and timestamp, then inserts a message row carrying the
// public URL. If the upload fails, no row is inserted. A thumbnail is
// generated best effort; its absence never blocks the send.
func (s *conversationService) SendImage(ctx context.Context, session models.AuthSession, conversationID uuid.UUID, filename string, file io.Reader) (*models.Message, *apiError.Error) {
	conv, apiErr := s.participantConversation(session, conversationID)
	if apiErr != nil {
		return nil, apiErr
	}
	if apiErr := s.requireGate(session, conv); apiErr != nil {
		return nil, apiErr
	}

	content, err := io.ReadAll(file)
	if err != nil {
		log.Printf("SendImage: reading upload: %v", err)
		return nil, apiError.ErrBadRequest
	}

	key := fmt.Sprintf("conversations/%s/%d_%s", conv.ID, time.Now().UnixNano(), SanitizeFilename(filename))
	imageURL, err := s.fileStore.Save(ctx, key, bytes.NewReader(content))
	if err != nil {
		metrics.ImageUploads.WithLabelValues("error").Inc()
		log.Printf("SendImage: upload failed, aborting send: %v", err)
		return nil, apiError.New("failed to upload image", http.StatusBadGateway)
	}
	metrics.ImageUploads.WithLabelValues("ok").Inc()

	thumbnailURL := ""
	if thumb, err := MakeThumbnail(bytes.NewReader(content)); err != nil {
		log.Printf("SendImage: thumbnail skipped: %v", err)
	} else if url, err := s.fileStore.Save(ctx, key+"_thumb.jpg", bytes.NewReader(thumb)); err != nil {
		log.Printf("SendImage: thumbnail upload skipped: %v", err)
	} else {
		thumbnailURL = url
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       session.UserID,
		ImageURL:       imageURL,
		ThumbnailURL:   thumbnailURL,
		CreatedAt:      time.Now(),
	}
	if err := s.conversationRepo.SaveMessage(msg); err != nil {
		log.Printf("SendImage: save message: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	metrics.MessagesSent.WithLabelValues("image").Inc()

	s.afterInsert(session, conv, msg, "[image]")
	return msg, nil
}

// DeleteConversation hard-deletes the conversation and its messages in one
// transaction. Either participant may do it; there is no undo.
func (s *conversationService) DeleteConversation(session models.AuthSession, conversationID uuid.UUID) *apiError.Error {
	conv, apiErr := s.participantConversation(session, conversationID)
	if apiErr != nil {
		return apiErr
	}

	if err := s.conversationRepo.DeleteConversation(conv.ID); err != nil {
		log.Printf("DeleteConversation %s: %v", conv.ID, err)
		return apiError.ErrInternalServerError
	}
	metrics.ConversationsDeleted.Inc()

	if s.feed != nil {
		s.feed.BroadcastConversationDeleted(conv.ID)
	}
	return nil
}

// participantConversation loads the conversation and rejects callers who are
// not one of its two parties.
func (s *conversationService) participantConversation(session models.AuthSession, conversationID uuid.UUID) (*models.Conversation, *apiError.Error) {
	conv, err := s.conversationRepo.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("fetching conversation %s: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}
	if !conv.Participant(session.UserID) {
		return nil, apiError.New("not a participant in this conversation", http.StatusForbidden)
	}
	return conv, nil
}

func (s *conversationService) evaluateGate(session models.AuthSession, conv *models.Conversation) (bool, *apiError.Error) {
	job, err := s.jobRepo.GetJob(conv.JobID)
	if err != nil {
		log.Printf("gate: fetching job %s: %v", conv.JobID, err)
		return false, apiError.ErrInternalServerError
	}
	hasReply, err := s.conversationRepo.HasCounterpartReply(conv.ID, session.UserID)
	if err != nil {
		log.Printf("gate: reply scan %s: %v", conv.ID, err)
		return false, apiError.ErrInternalServerError
	}
	return CanMessageWithReply(session, job, hasReply), nil
}

// requireGate is the composer-level block. It applies CanCompose, not the
// fuller CanMessage rule: a tradie's opening contact on an unassigned job
// must land, so only a job assigned to a different tradie rejects the send.
func (s *conversationService) requireGate(session models.AuthSession, conv *models.Conversation) *apiError.Error {
	job, err := s.jobRepo.GetJob(conv.JobID)
	if err != nil {
		log.Printf("gate: fetching job %s: %v", conv.JobID, err)
		return apiError.ErrInternalServerError
	}
	if !CanCompose(session, job) {
		return apiError.New("messaging is closed for this job", http.StatusForbidden)
	}
	return nil
}

// afterInsert runs the post-insert side effects: conversation summary
// update, change feed fanout, counterpart notification. All best effort and
// logged, none of them fail the send.
func (s *conversationService) afterInsert(session models.AuthSession, conv *models.Conversation, msg *models.Message, preview string) {
	if err := s.conversationRepo.UpdateConversationLastMessage(conv.ID, preview, msg.CreatedAt); err != nil {
		log.Printf("afterInsert: update last message %s: %v", conv.ID, err)
	}

	if s.feed != nil {
		delivered := s.feed.BroadcastMessage(msg)
		metrics.FeedEventsDelivered.Add(float64(delivered))
	}

	if s.notifier == nil {
		return
	}
	senderName, senderAvatar := "Someone", ""
	if sender, err := s.authRepo.FindUserByID(session.UserID); err == nil {
		senderName, senderAvatar = sender.Fullname, sender.AvatarURL
	}
	n := models.NewMessageNotification(conv.CounterpartID(session.UserID), msg, senderName, senderAvatar)
	if err := s.notifier.Notify(n); err != nil {
		log.Printf("afterInsert: notify counterpart: %v", err)
	}
}
