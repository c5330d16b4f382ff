package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flowchat/lib"
	"flowchat/model"
	"flowchat/platform"
)

var logger = platform.Logger

const (
	defaultTitle = "New conversation"

	// titleMaxRunes is the visible length of a derived title, marker included.
	titleMaxRunes  = 50
	titleTruncMark = "..."

	conversationPageSize = 50
	messagePageSize      = 200
)

// RecordStore 会话核心依赖的远端记录存储
type RecordStore interface {
	ListConversations(ctx context.Context, owner string, limit int) ([]model.ConversationRecord, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageRecord, error)
	CreateConversation(ctx context.Context, rec model.ConversationRecord) (model.ConversationRecord, error)
	CreateMessage(ctx context.Context, rec model.MessageRecord) (model.MessageRecord, error)
	UpdateConversation(ctx context.Context, id string, fields map[string]any) error
	DeleteConversation(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id string) error
}

// ConversationService owns the in-memory conversation list and the selected
// conversation cursor, mirrors mutations to the remote store best-effort, and
// degrades to local-only mode when the store or the session is unavailable.
type ConversationService struct {
	store     RecordStore
	auth      AuthProvider
	generator Generator
	notifier  Notifier

	mu            sync.Mutex
	conversations []*model.Conversation
	selectedID    string
	owner         string
	authenticated bool
	initialized   bool
	inflight      map[string]*generation
}

func NewConversationService(store RecordStore, auth AuthProvider, generator Generator, notifier Notifier) *ConversationService {
	return &ConversationService{
		store:     store,
		auth:      auth,
		generator: generator,
		notifier:  notifier,
		inflight:  make(map[string]*generation),
	}
}

// Conversations returns a snapshot of the list, most recent first.
func (s *ConversationService) Conversations() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// SelectedID returns the currently selected conversation id, empty when none.
func (s *ConversationService) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// GetConversation returns a snapshot of one conversation.
func (s *ConversationService) GetConversation(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(id)
	if c == nil {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	return c.Clone(), nil
}

// CreateConversation allocates a conversation with a client-minted id,
// prepends it to the list and selects it. When authenticated the record is
// inserted remotely; on failure the conversation stays local-only for this
// session and the user is warned once.
func (s *ConversationService) CreateConversation(ctx context.Context) *model.Conversation {
	now := time.Now()
	conv := &model.Conversation{
		ID:        lib.NewID(),
		Title:     defaultTitle,
		Messages:  []*model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.selectedID = conv.ID
	authed, owner := s.authenticated, s.owner
	s.mu.Unlock()

	if authed {
		if _, err := s.store.CreateConversation(ctx, model.NewConversationRecord(conv, owner)); err != nil {
			logger.Warnf("[conversation] create %s remote insert failed, %s", conv.ID, err)
			s.notifier.Notify("Conversation could not be saved and will not survive a reload.", SeverityNormal)
		}
	}
	return conv.Clone()
}

// SelectConversation moves the cursor. Pure in-memory, never fails; selecting
// an unknown id leaves the cursor unchanged.
func (s *ConversationService) SelectConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(id) != nil {
		s.selectedID = id
	}
}

// DeleteConversation removes a conversation from memory and, when
// authenticated, deletes its persisted messages first and the conversation
// record after. A partial remote failure is reported once; the in-memory
// removal proceeds regardless.
func (s *ConversationService) DeleteConversation(ctx context.Context, id string) {
	s.mu.Lock()
	conv := s.find(id)
	if conv == nil {
		s.mu.Unlock()
		return
	}
	authed := s.authenticated

	remaining := make([]*model.Conversation, 0, len(s.conversations)-1)
	for _, c := range s.conversations {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	s.conversations = remaining
	if s.selectedID == id {
		if len(remaining) > 0 {
			s.selectedID = remaining[0].ID
		} else {
			s.selectedID = ""
		}
	}
	s.mu.Unlock()

	if !authed {
		return
	}

	// Persisted messages go first for referential cleanliness. They are
	// paged: one page can be shorter than the conversation's history.
	var remoteErr error
	for {
		recs, err := s.store.ListMessages(ctx, id, messagePageSize)
		if err != nil {
			if remoteErr == nil {
				remoteErr = err
			}
			break
		}
		deleted := 0
		for _, rec := range recs {
			if err := s.store.DeleteMessage(ctx, rec.ID); err != nil {
				if remoteErr == nil {
					remoteErr = err
				}
				continue
			}
			deleted++
		}
		// A short page means the history is drained; a full page with no
		// successful delete would just re-list the same records forever.
		if len(recs) < messagePageSize || deleted == 0 {
			break
		}
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil && remoteErr == nil {
		remoteErr = err
	}
	if remoteErr != nil {
		logger.Warnf("[conversation] delete %s remote cleanup failed, %s", id, remoteErr)
		s.notifier.Notify("Conversation was removed locally but could not be fully deleted from the server.", SeverityDestructive)
	}
}

// UpdateTitle derives a title from seed text and applies it to memory
// immediately. The remote mirror is fire-and-forget: failure is logged and
// otherwise silent, the one accepted silent degradation.
func (s *ConversationService) UpdateTitle(ctx context.Context, id string, seed string) {
	title := deriveTitle(seed)

	s.mu.Lock()
	conv := s.find(id)
	if conv == nil {
		s.mu.Unlock()
		return
	}
	conv.Title = title
	conv.UpdatedAt = time.Now()
	authed := s.authenticated
	updated := conv.UpdatedAt
	s.mu.Unlock()

	if authed {
		fields := map[string]any{
			"title":   title,
			"updated": updated.Format(time.RFC3339),
		}
		if err := s.store.UpdateConversation(ctx, id, fields); err != nil {
			logger.Warnf("[conversation] update title %s remote mirror failed, %s", id, err)
		}
	}
}

// AppendMessage appends to memory unconditionally, advancing UpdatedAt in the
// same critical section, then mirrors the message remotely when authenticated.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error {
	if err := s.appendLocal(conversationID, msg); err != nil {
		return err
	}

	s.mu.Lock()
	authed := s.authenticated
	s.mu.Unlock()
	if authed {
		if _, err := s.store.CreateMessage(ctx, model.NewMessageRecord(msg, conversationID)); err != nil {
			logger.Warnf("[conversation] append message %s remote insert failed, %s", msg.ID, err)
			s.notifier.Notify("Message could not be saved and will not survive a reload.", SeverityNormal)
		}
	}
	return nil
}

// appendLocal does the snapshot-then-replace append so the message list and
// UpdatedAt always move together.
func (s *ConversationService) appendLocal(conversationID string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.find(conversationID)
	if conv == nil {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	next := make([]*model.Message, len(conv.Messages)+1)
	copy(next, conv.Messages)
	next[len(conv.Messages)] = msg
	conv.Messages = next
	conv.UpdatedAt = time.Now()
	return nil
}

// find must be called with s.mu held.
func (s *ConversationService) find(id string) *model.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// deriveTitle truncates seed text to titleMaxRunes visible characters, marker
// included, so an 80-rune seed yields exactly 50 runes ending in "...".
func deriveTitle(seed string) string {
	runes := []rune(seed)
	if len(runes) <= titleMaxRunes {
		return seed
	}
	keep := titleMaxRunes - len([]rune(titleTruncMark))
	return string(runes[:keep]) + titleTruncMark
}
