package model

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Store 基于 gorm 的记录存储实现
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListConversations returns up to limit conversation records for an owner,
// most recently updated first.
func (s *Store) ListConversations(ctx context.Context, owner string, limit int) ([]ConversationRecord, error) {
	var recs []ConversationRecord
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("updated DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return recs, nil
}

// ListMessages returns up to limit message records for a conversation in
// chronological order.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	var recs []MessageRecord
	err := s.db.WithContext(ctx).
		Where("conversation = ?", conversationID).
		Order("created ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return recs, nil
}

// CreateConversation inserts a conversation record. Client-minted ids are kept
// as-is, the store never assigns its own.
func (s *Store) CreateConversation(ctx context.Context, rec ConversationRecord) (ConversationRecord, error) {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return ConversationRecord{}, fmt.Errorf("create conversation: %w", err)
	}
	return rec, nil
}

func (s *Store) CreateMessage(ctx context.Context, rec MessageRecord) (MessageRecord, error) {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return MessageRecord{}, fmt.Errorf("create message: %w", err)
	}
	return rec, nil
}

// UpdateConversation applies a partial field update to one conversation record.
func (s *Store) UpdateConversation(ctx context.Context, id string, fields map[string]any) error {
	if err := s.db.WithContext(ctx).Model(&ConversationRecord{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update conversation %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&ConversationRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&MessageRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	return nil
}
