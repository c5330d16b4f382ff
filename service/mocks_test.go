package service

import (
	"context"
	"strings"
	"sync"

	"flowchat/model"
)

// mockRecordStore is a hand-written in-memory RecordStore with injectable
// failures and call recording.
type mockRecordStore struct {
	mu sync.Mutex

	conversations []model.ConversationRecord
	messages      []model.MessageRecord

	listConvErr   error
	listMsgErrFor string
	createConvErr error
	createMsgErr  error
	updateErr     error
	deleteConvErr error

	// deleteMsgFailAt makes the n-th DeleteMessage call fail (1-based).
	deleteMsgFailAt int

	// createMsgHook runs at the top of CreateMessage, outside the lock, so
	// tests can hold a send inside a remote call.
	createMsgHook func()

	listConvCalls   int
	createMsgCalls  int
	updateCalls     int
	deleteMsgCalls  []string
	deleteConvCalls []string
	deleteOrder     []string
}

func (m *mockRecordStore) ListConversations(ctx context.Context, owner string, limit int) ([]model.ConversationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listConvCalls++
	if m.listConvErr != nil {
		return nil, m.listConvErr
	}
	return m.conversations, nil
}

func (m *mockRecordStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listMsgErrFor == conversationID {
		return nil, assertErr("list messages failed")
	}
	var out []model.MessageRecord
	for _, rec := range m.messages {
		if rec.Conversation == conversationID {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockRecordStore) CreateConversation(ctx context.Context, rec model.ConversationRecord) (model.ConversationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createConvErr != nil {
		return model.ConversationRecord{}, m.createConvErr
	}
	m.conversations = append(m.conversations, rec)
	return rec, nil
}

func (m *mockRecordStore) CreateMessage(ctx context.Context, rec model.MessageRecord) (model.MessageRecord, error) {
	if m.createMsgHook != nil {
		m.createMsgHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createMsgCalls++
	if m.createMsgErr != nil {
		return model.MessageRecord{}, m.createMsgErr
	}
	m.messages = append(m.messages, rec)
	return rec, nil
}

func (m *mockRecordStore) UpdateConversation(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	return m.updateErr
}

func (m *mockRecordStore) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteConvCalls = append(m.deleteConvCalls, id)
	m.deleteOrder = append(m.deleteOrder, "conversation")
	return m.deleteConvErr
}

func (m *mockRecordStore) DeleteMessage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteMsgCalls = append(m.deleteMsgCalls, id)
	m.deleteOrder = append(m.deleteOrder, "message")
	if m.deleteMsgFailAt > 0 && len(m.deleteMsgCalls) == m.deleteMsgFailAt {
		return assertErr("delete message failed")
	}
	for i, rec := range m.messages {
		if rec.ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			break
		}
	}
	return nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// mockAuth resolves a fixed user or a fixed failure.
type mockAuth struct {
	user *AuthUser
	err  error
}

func (a *mockAuth) CurrentUser() (*AuthUser, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.user, nil
}

// mockGenerator replays canned chunks, or delegates to a hook for tests that
// need to poke the service mid-stream.
type mockGenerator struct {
	chunks  []string
	sources []string
	err     error
	hook    func(ctx context.Context, turns []ChatTurn, onChunk func(string)) (*GenerateResult, error)

	calls     int
	gotTurns  []ChatTurn
	gotSearch bool
}

func (g *mockGenerator) Generate(ctx context.Context, turns []ChatTurn, withSearch bool, onChunk func(delta string)) (*GenerateResult, error) {
	g.calls++
	g.gotTurns = turns
	g.gotSearch = withSearch
	if g.hook != nil {
		return g.hook(ctx, turns, onChunk)
	}
	for _, c := range g.chunks {
		onChunk(c)
	}
	if g.err != nil {
		return nil, g.err
	}
	var b strings.Builder
	for _, c := range g.chunks {
		b.WriteString(c)
	}
	return &GenerateResult{Content: b.String(), Sources: g.sources}, nil
}

// spyNotifier records every notification.
type spyNotifier struct {
	mu     sync.Mutex
	normal []string
	destr  []string
}

func (n *spyNotifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if severity == SeverityDestructive {
		n.destr = append(n.destr, message)
	} else {
		n.normal = append(n.normal, message)
	}
}
