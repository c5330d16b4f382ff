package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRecord = errors.New("invalid record")
)

// ConversationRecord 是会话在持久化存储中的扁平形态
// Timestamps are RFC3339 strings, ids are plain strings.
type ConversationRecord struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Owner   string `gorm:"index;type:varchar(64)" json:"owner"`
	Title   string `gorm:"type:text" json:"title"`
	Created string `gorm:"type:varchar(40)" json:"created"`
	Updated string `gorm:"type:varchar(40)" json:"updated"`
}

// MessageRecord 是消息在持久化存储中的扁平形态
// Sources is a JSON-encoded string array, empty when the message has none.
type MessageRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Conversation string `gorm:"index;type:varchar(64)" json:"conversation"`
	Role         string `gorm:"type:varchar(16)" json:"role"`
	Content      string `gorm:"type:text" json:"content"`
	Sources      string `gorm:"type:text" json:"sources"`
	Created      string `gorm:"type:varchar(40)" json:"created"`
}

// ToConversation validates a persisted conversation record and converts it to
// the domain shape. A record without an id or title is rejected. Unparsable
// timestamps degrade to now so a conversation always carries a usable date.
func ToConversation(rec ConversationRecord) (*Conversation, error) {
	if rec.ID == "" || rec.Title == "" {
		return nil, fmt.Errorf("%w: conversation missing id or title", ErrInvalidRecord)
	}
	return &Conversation{
		ID:        rec.ID,
		Title:     rec.Title,
		Messages:  []*Message{},
		CreatedAt: parseTimeOrNow(rec.Created),
		UpdatedAt: parseTimeOrNow(rec.Updated),
	}, nil
}

// ToMessage validates a persisted message record and converts it to the domain
// shape. Unlike conversations, a message with an unparsable timestamp is
// rejected: message ordering matters more than lossy recovery.
func ToMessage(rec MessageRecord) (*Message, error) {
	if rec.ID == "" || rec.Content == "" || rec.Role == "" {
		return nil, fmt.Errorf("%w: message missing id, content or role", ErrInvalidRecord)
	}
	role := Role(rec.Role)
	if role != RoleUser && role != RoleAssistant {
		return nil, fmt.Errorf("%w: unknown message role %q", ErrInvalidRecord, rec.Role)
	}
	ts, err := time.Parse(time.RFC3339, rec.Created)
	if err != nil {
		return nil, fmt.Errorf("%w: bad message timestamp %q", ErrInvalidRecord, rec.Created)
	}
	return &Message{
		ID:        rec.ID,
		Role:      role,
		Content:   rec.Content,
		Timestamp: ts,
		Sources:   parseSources(rec.Sources),
	}, nil
}

// ToConversations converts a batch of records, silently dropping invalid ones
// and preserving the order of the valid ones. The second return value is the
// number of dropped records, for diagnostics.
func ToConversations(recs []ConversationRecord) ([]*Conversation, int) {
	out := make([]*Conversation, 0, len(recs))
	dropped := 0
	for _, rec := range recs {
		c, err := ToConversation(rec)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

// ToMessages is the batch variant of ToMessage with the same filtering rules.
func ToMessages(recs []MessageRecord) ([]*Message, int) {
	out := make([]*Message, 0, len(recs))
	dropped := 0
	for _, rec := range recs {
		m, err := ToMessage(rec)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, m)
	}
	return out, dropped
}

// NewConversationRecord builds the persistable shape of a conversation.
func NewConversationRecord(c *Conversation, owner string) ConversationRecord {
	return ConversationRecord{
		ID:      c.ID,
		Owner:   owner,
		Title:   c.Title,
		Created: c.CreatedAt.Format(time.RFC3339),
		Updated: c.UpdatedAt.Format(time.RFC3339),
	}
}

// NewMessageRecord builds the persistable shape of a message. Sources are
// JSON-encoded, or left empty when the message has none.
func NewMessageRecord(m *Message, conversationID string) MessageRecord {
	rec := MessageRecord{
		ID:           m.ID,
		Conversation: conversationID,
		Role:         string(m.Role),
		Content:      m.Content,
		Created:      m.Timestamp.Format(time.RFC3339),
	}
	if len(m.Sources) > 0 {
		if data, err := json.Marshal(m.Sources); err == nil {
			rec.Sources = string(data)
		}
	}
	return rec
}

func parseTimeOrNow(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now()
	}
	return t
}

// parseSources is defensive: any parse failure means "no sources" rather than
// rejecting the whole message.
func parseSources(s string) []string {
	if s == "" {
		return nil
	}
	var sources []string
	if err := json.Unmarshal([]byte(s), &sources); err != nil {
		return nil
	}
	if len(sources) == 0 {
		return nil
	}
	return sources
}
