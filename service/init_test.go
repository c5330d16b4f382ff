package service

import (
	"context"
	"testing"
	"time"

	"flowchat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeUnauthenticatedIsUsable(t *testing.T) {
	store := &mockRecordStore{}
	svc := NewConversationService(store, &mockAuth{err: assertErr("no session")}, &mockGenerator{}, &spyNotifier{})

	svc.Initialize(context.Background())

	assert.Empty(t, svc.Conversations())
	assert.Empty(t, svc.SelectedID())
	assert.Zero(t, store.listConvCalls, "no remote calls without a session")

	// Local-only mode stays fully usable.
	conv := svc.CreateConversation(context.Background())
	assert.NotNil(t, conv)
	assert.Equal(t, conv.ID, svc.SelectedID())
}

func TestInitializeLoadsAndTransforms(t *testing.T) {
	now := time.Now().Format(time.RFC3339)
	store := &mockRecordStore{
		conversations: []model.ConversationRecord{
			{ID: "c1", Owner: "u1", Title: "first", Created: now, Updated: now},
			{ID: "", Owner: "u1", Title: "invalid, no id", Created: now, Updated: now},
			{ID: "c2", Owner: "u1", Title: "second", Created: now, Updated: now},
		},
		messages: []model.MessageRecord{
			{ID: "m1", Conversation: "c1", Role: "user", Content: "hi", Created: now},
			{ID: "m2", Conversation: "c1", Role: "oracle", Content: "dropped", Created: now},
			{ID: "m3", Conversation: "c1", Role: "assistant", Content: "hello", Created: now},
		},
	}
	svc := NewConversationService(store, &mockAuth{user: &AuthUser{ID: "u1"}}, &mockGenerator{}, &spyNotifier{})

	svc.Initialize(context.Background())

	list := svc.Conversations()
	require.Len(t, list, 2, "invalid conversation records are dropped")
	assert.Equal(t, "c1", list[0].ID)
	assert.Equal(t, "c1", svc.SelectedID(), "first conversation becomes selected")

	require.Len(t, list[0].Messages, 2, "invalid message records are dropped")
	assert.Equal(t, "m1", list[0].Messages[0].ID)
	assert.Equal(t, "m3", list[0].Messages[1].ID)
}

func TestInitializeMessageLoadFailureDegrades(t *testing.T) {
	now := time.Now().Format(time.RFC3339)
	store := &mockRecordStore{
		conversations: []model.ConversationRecord{
			{ID: "c1", Owner: "u1", Title: "broken", Created: now, Updated: now},
			{ID: "c2", Owner: "u1", Title: "fine", Created: now, Updated: now},
		},
		messages: []model.MessageRecord{
			{ID: "m1", Conversation: "c2", Role: "user", Content: "hi", Created: now},
		},
		listMsgErrFor: "c1",
	}
	svc := NewConversationService(store, &mockAuth{user: &AuthUser{ID: "u1"}}, &mockGenerator{}, &spyNotifier{})

	svc.Initialize(context.Background())

	list := svc.Conversations()
	require.Len(t, list, 2, "one broken conversation does not abort the sequence")
	assert.Empty(t, list[0].Messages, "failed load degrades to an empty message list")
	assert.Len(t, list[1].Messages, 1)
}

func TestInitializeListFailureDegradesToEmpty(t *testing.T) {
	store := &mockRecordStore{listConvErr: assertErr("store unreachable")}
	spy := &spyNotifier{}
	svc := NewConversationService(store, &mockAuth{user: &AuthUser{ID: "u1"}}, &mockGenerator{}, spy)

	svc.Initialize(context.Background())

	assert.Empty(t, svc.Conversations())
	assert.Len(t, spy.destr, 1)

	// Still authenticated, still usable.
	conv := svc.CreateConversation(context.Background())
	assert.NotNil(t, conv)
}

func TestInitializeRunsOnce(t *testing.T) {
	now := time.Now().Format(time.RFC3339)
	store := &mockRecordStore{
		conversations: []model.ConversationRecord{
			{ID: "c1", Owner: "u1", Title: "only", Created: now, Updated: now},
		},
	}
	svc := NewConversationService(store, &mockAuth{user: &AuthUser{ID: "u1"}}, &mockGenerator{}, &spyNotifier{})

	svc.Initialize(context.Background())
	svc.Initialize(context.Background())

	assert.Equal(t, 1, store.listConvCalls, "the sequencer is idempotent")
	assert.Len(t, svc.Conversations(), 1)
}
