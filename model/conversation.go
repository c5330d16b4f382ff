package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 表示会话中的一条消息
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsLoading bool      `json:"is_loading"`
	Sources   []string  `json:"sources,omitempty"`
}

// Conversation 表示一个多轮会话及其消息列表
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the live message slice.
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		mc := *m
		if m.Sources != nil {
			mc.Sources = append([]string(nil), m.Sources...)
		}
		cp.Messages[i] = &mc
	}
	return &cp
}
