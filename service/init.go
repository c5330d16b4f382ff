package service

import (
	"context"

	"flowchat/model"
)

// Initialize runs the startup sequence exactly once per service instance:
// resolve the session, bulk-load and transform conversations and their
// messages, and select the first conversation. Every failure degrades to an
// empty-but-usable state; an unauthenticated session is a normal terminal
// state, not an error.
func (s *ConversationService) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	user, err := s.auth.CurrentUser()
	if err != nil {
		logger.Infof("[init] no authenticated session, starting local-only: %s", err)
		return
	}

	s.mu.Lock()
	s.authenticated = true
	s.owner = user.ID
	s.mu.Unlock()

	recs, err := s.store.ListConversations(ctx, user.ID, conversationPageSize)
	if err != nil {
		logger.Warnf("[init] loading conversations failed, %s", err)
		s.notifier.Notify("Your conversations could not be loaded.", SeverityDestructive)
		return
	}

	convs, dropped := model.ToConversations(recs)
	if dropped > 0 {
		logger.Warnf("[init] dropped %d invalid conversation records of %d", dropped, len(recs))
	}

	for _, conv := range convs {
		mrecs, err := s.store.ListMessages(ctx, conv.ID, messagePageSize)
		if err != nil {
			// One broken conversation should not sink the rest.
			logger.Warnf("[init] loading messages for %s failed, %s", conv.ID, err)
			conv.Messages = []*model.Message{}
			continue
		}
		msgs, mdropped := model.ToMessages(mrecs)
		if mdropped > 0 {
			logger.Warnf("[init] conversation %s: dropped %d invalid message records of %d", conv.ID, mdropped, len(mrecs))
		}
		conv.Messages = msgs
	}

	s.mu.Lock()
	s.conversations = convs
	if len(convs) > 0 {
		s.selectedID = convs[0].ID
	}
	s.mu.Unlock()

	logger.Infof("[init] loaded %d conversations for user %s", len(convs), user.ID)
}
