package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/locentra/locentra-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ConversationRepository is the store accessor for conversations and their
// messages.
type ConversationRepository interface {
	FindOrCreateConversation(conv *models.Conversation) (*models.Conversation, error)
	GetConversation(id uuid.UUID) (*models.Conversation, error)
	ListConversations(userID uint, role string) ([]models.ConversationSummary, error)
	ListMessages(conversationID uuid.UUID) ([]models.Message, error)
	SaveMessage(msg *models.Message) error
	UpdateConversationLastMessage(conversationID uuid.UUID, lastMessage string, at time.Time) error
	DeleteConversation(conversationID uuid.UUID) error
	MarkMessagesRead(conversationID uuid.UUID, readerID uint) (int64, error)
	HasCounterpartReply(conversationID uuid.UUID, userID uint) (bool, error)
}

type conversationRepo struct {
	DB *gorm.DB
}

func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

// FindOrCreateConversation returns the existing conversation for the
// homeowner/tradie/job triple, creating it on first contact.
func (r *conversationRepo) FindOrCreateConversation(conv *models.Conversation) (*models.Conversation, error) {
	var existing models.Conversation
	err := r.DB.Where("homeowner_id = ? AND tradie_id = ? AND job_id = ?",
		conv.HomeownerID, conv.TradieID, conv.JobID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "gorm.first error")
	}

	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	if err := r.DB.Create(conv).Error; err != nil {
		return nil, errors.Wrap(err, "gorm.create error")
	}
	return conv, nil
}

func (r *conversationRepo) GetConversation(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.DB.Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the user's conversations with the one-hop joins
// the contact list renders: job title plus counterpart name and avatar. The
// ordering is stable so repeated calls with no writes in between return the
// identical sequence.
func (r *conversationRepo) ListConversations(userID uint, role string) ([]models.ConversationSummary, error) {
	ownColumn := "conversations.homeowner_id"
	counterpartColumn := "conversations.tradie_id"
	if role == models.RoleTradie {
		ownColumn = "conversations.tradie_id"
		counterpartColumn = "conversations.homeowner_id"
	}

	var summaries []models.ConversationSummary
	err := r.DB.Table("conversations").
		Select("conversations.id, conversations.job_id, jobs.title AS job_title, "+
			"users.id AS counterpart_id, users.fullname AS counterpart_name, users.avatar_url AS counterpart_avatar, "+
			"conversations.last_message, conversations.updated_at, "+
			"(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = conversations.id AND m.sender_id <> ? AND m.is_read = ?) AS unread_count",
			userID, false).
		Joins("JOIN jobs ON jobs.id = conversations.job_id").
		Joins("JOIN users ON users.id = "+counterpartColumn).
		Where(ownColumn+" = ?", userID).
		Order("conversations.updated_at DESC, conversations.id ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm.scan error")
	}
	return summaries, nil
}

// ListMessages returns the conversation history in non-decreasing creation
// time, ties broken by id for a stable order.
func (r *conversationRepo) ListMessages(conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm.find error")
	}
	return messages, nil
}

// SaveMessage inserts a message row. A message carries text and/or an image;
// one with neither never reaches the table.
func (r *conversationRepo) SaveMessage(msg *models.Message) error {
	if msg.Empty() {
		return errors.New("message has no body and no image")
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if err := r.DB.Create(msg).Error; err != nil {
		return errors.Wrap(err, "gorm.create error")
	}
	return nil
}

func (r *conversationRepo) UpdateConversationLastMessage(conversationID uuid.UUID, lastMessage string, at time.Time) error {
	err := r.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message": lastMessage,
			"updated_at":   at,
		}).Error
	return errors.Wrap(err, "gorm.update error")
}

// DeleteConversation removes the messages and the conversation row in one
// transaction, so a failure can never leave an orphaned half.
func (r *conversationRepo) DeleteConversation(conversationID uuid.UUID) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
			return errors.Wrap(err, "delete messages")
		}
		if err := tx.Where("id = ?", conversationID).Delete(&models.Conversation{}).Error; err != nil {
			return errors.Wrap(err, "delete conversation")
		}
		return nil
	})
}

// MarkMessagesRead flips the read flag on every unread message in the
// conversation that the reader did not author. Returns the number of rows
// updated.
func (r *conversationRepo) MarkMessagesRead(conversationID uuid.UUID, readerID uint) (int64, error) {
	res := r.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "gorm.update error")
	}
	return res.RowsAffected, nil
}

// HasCounterpartReply reports whether any message in the conversation was
// authored by someone other than the given user.
func (r *conversationRepo) HasCounterpartReply(conversationID uuid.UUID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "gorm.count error")
	}
	return count > 0, nil
}
