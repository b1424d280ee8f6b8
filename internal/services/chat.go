package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

// ChatPublisher delivers new-message events to realtime listeners.
type ChatPublisher interface {
	Publish(ctx context.Context, event ChatEvent) error
}

type ChatService struct {
	db                  *gorm.DB
	publisher           ChatPublisher
	enforceParticipants bool
	log                 *zap.Logger
}

// NewChatService returns a ChatService. publisher may be nil. When
// enforceParticipants is set, only chat members may send messages.
func NewChatService(db *gorm.DB, publisher ChatPublisher, enforceParticipants bool, log *zap.Logger) *ChatService {
	return &ChatService{db: db, publisher: publisher, enforceParticipants: enforceParticipants, log: log}
}

func orderedPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// CreateOrGetChat returns the chat between the two users, creating it on
// first contact. Argument order does not matter.
func (s *ChatService) CreateOrGetChat(ctx context.Context, user1ID, user2ID string) (*models.Chat, error) {
	user1ID, user2ID = strings.TrimSpace(user1ID), strings.TrimSpace(user2ID)
	if user1ID == "" || user2ID == "" {
		return nil, validationError(MsgUserIDsRequired)
	}
	low, high := orderedPair(user1ID, user2ID)

	chat, err := s.findByPair(ctx, low, high)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find chat: %w", err)
	}

	candidate := &models.Chat{
		ID:       uuid.NewString(),
		User1ID:  user1ID,
		User2ID:  user2ID,
		PairLow:  low,
		PairHigh: high,
	}
	// a concurrent creator may win the unique pair index; re-read either way
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(candidate).Error
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	chat, err = s.findByPair(ctx, low, high)
	if err != nil {
		return nil, fmt.Errorf("reload chat: %w", err)
	}
	return chat, nil
}

func (s *ChatService) findByPair(ctx context.Context, low, high string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("pair_low = ? AND pair_high = ?", low, high).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}
	return &chat, nil
}

// SendMessage appends a message to an existing chat and publishes it.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID, text string) (*models.Message, error) {
	senderID, text = strings.TrimSpace(senderID), strings.TrimSpace(text)
	if senderID == "" || text == "" {
		return nil, validationError(MsgSenderRequired)
	}

	chat, err := s.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s.enforceParticipants && !chat.HasParticipant(senderID) {
		return nil, unauthorized(MsgNotParticipant)
	}

	msg := &models.Message{ChatID: chat.ID, SenderID: senderID, Message: text}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(chat).Update("updated_at", time.Now().UTC()).Error; err != nil {
		s.log.Warn("failed to bump chat activity", zap.String("chat_id", chat.ID), zap.Error(err))
	}

	if s.publisher != nil {
		event := ChatEvent{Type: "message", ChatID: chat.ID, Message: msg, Timestamp: msg.CreatedAt}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish chat event", zap.String("chat_id", chat.ID), zap.Error(err))
		}
	}
	return msg, nil
}

// GetChat returns the chat without its messages.
func (s *ChatService) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgChatNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return &chat, nil
}

// GetMessages returns the chat's messages oldest first. Unknown chats yield
// an empty list.
func (s *ChatService) GetMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// ListChatsForUser returns every chat the user belongs to, most recently
// active first, each carrying only its latest message.
func (s *ChatService) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at DESC").
		Order("id").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		return chats, nil
	}

	ids := make([]string, len(chats))
	for i := range chats {
		ids[i] = chats[i].ID
	}

	var latest []models.Message
	err = s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&models.Message{}).
			Select("MAX(id)").
			Where("chat_id IN ?", ids).
			Group("chat_id")).
		Find(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}

	byChat := make(map[string]models.Message, len(latest))
	for _, m := range latest {
		byChat[m.ChatID] = m
	}
	for i := range chats {
		chats[i].Messages = []models.Message{}
		if m, ok := byChat[chats[i].ID]; ok {
			chats[i].Messages = append(chats[i].Messages, m)
		}
	}
	return chats, nil
}
