package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"flowchat/lib"
	"flowchat/model"
)

const (
	// contextWindowSize bounds how many prior messages are sent to the
	// generation provider. Fixed policy, not configurable per call.
	contextWindowSize = 20

	generationFailedText = "Sorry, something went wrong while generating a response. Please try again."
)

// ErrGenerationInProgress is returned when a second send races an active
// generation on the same conversation.
var ErrGenerationInProgress = errors.New("a response is already being generated for this conversation")

// generation tracks one in-flight streaming fold.
type generation struct {
	cancel    context.CancelFunc
	cancelled bool
}

// ChatTurn is one role/content pair sent to the generation provider.
type ChatTurn struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// GenerateResult is the completed output of one generation.
type GenerateResult struct {
	Content string
	Sources []string
}

// Generator 流式生成提供方
// Implementations must call onChunk once per incremental text fragment and
// honor ctx cancellation by tearing down the underlying stream.
type Generator interface {
	Generate(ctx context.Context, turns []ChatTurn, withSearch bool, onChunk func(delta string)) (*GenerateResult, error)
}

// SendMessage appends the user message, streams the assistant response into a
// placeholder message and finalizes it. Chunks are forwarded to onChunk (may
// be nil) as they are folded in.
//
// The placeholder is appended with IsLoading=true before the first chunk
// arrives so observers have an immediate anchor. Whatever the outcome, the
// placeholder never stays in loading state: it ends as the completed response,
// as a fixed error text, or as the partial content accumulated before a
// cancellation.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID string, text string, withSearch bool, onChunk func(delta string)) (*model.Message, error) {
	s.mu.Lock()
	conv := s.find(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return nil, errors.New("conversation not found")
	}
	if _, busy := s.inflight[conversationID]; busy {
		s.mu.Unlock()
		return nil, ErrGenerationInProgress
	}
	// The guard must be registered in the same critical section as the busy
	// check: the remote calls below are suspension points, and a second send
	// racing through them would otherwise pass the check too.
	genCtx, cancel := context.WithCancel(ctx)
	gen := &generation{cancel: cancel}
	s.inflight[conversationID] = gen
	firstMessage := len(conv.Messages) == 0
	s.mu.Unlock()

	defer cancel()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, conversationID)
		s.mu.Unlock()
	}()

	if firstMessage {
		s.UpdateTitle(ctx, conversationID, text)
	}

	userMsg := &model.Message{
		ID:        lib.NewID(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}

	// Window over the messages that preceded this send, newest N only, the
	// fresh user message last.
	s.mu.Lock()
	turns := contextWindow(conv.Messages, contextWindowSize)
	s.mu.Unlock()
	turns = append(turns, ChatTurn{Role: model.RoleUser, Content: text})

	if err := s.AppendMessage(ctx, conversationID, userMsg); err != nil {
		return nil, err
	}

	placeholder := &model.Message{
		ID:        lib.NewID(),
		Role:      model.RoleAssistant,
		Timestamp: time.Now(),
		IsLoading: true,
	}
	if err := s.appendLocal(conversationID, placeholder); err != nil {
		return nil, err
	}

	var acc strings.Builder
	fold := func(delta string) {
		s.mu.Lock()
		if gen.cancelled {
			s.mu.Unlock()
			return
		}
		acc.WriteString(delta)
		placeholder.Content = acc.String()
		s.mu.Unlock()
		if onChunk != nil {
			onChunk(delta)
		}
	}

	result, err := s.generator.Generate(genCtx, turns, withSearch, fold)

	switch {
	case errors.Is(err, context.Canceled):
		// Whatever accumulated stays visible, the loading flag is cleared.
		s.mu.Lock()
		placeholder.IsLoading = false
		conv.UpdatedAt = time.Now()
		s.mu.Unlock()
		logger.Infof("[stream] generation for %s cancelled", conversationID)
		return s.snapshotMessage(conversationID, placeholder.ID), nil

	case err != nil:
		s.mu.Lock()
		placeholder.Content = generationFailedText
		placeholder.IsLoading = false
		conv.UpdatedAt = time.Now()
		s.mu.Unlock()
		logger.Warnf("[stream] generation for %s failed, %s", conversationID, err)
		s.notifier.Notify("The assistant failed to respond. Please try again.", SeverityDestructive)
		return s.snapshotMessage(conversationID, placeholder.ID), nil
	}

	// Finalize: full content and sources attached once, loading cleared.
	s.mu.Lock()
	placeholder.Content = result.Content
	placeholder.Sources = result.Sources
	placeholder.IsLoading = false
	conv.UpdatedAt = time.Now()
	authed := s.authenticated
	s.mu.Unlock()

	if authed {
		if _, perr := s.store.CreateMessage(ctx, model.NewMessageRecord(placeholder, conversationID)); perr != nil {
			logger.Warnf("[stream] persist assistant message %s failed, %s", placeholder.ID, perr)
			s.notifier.Notify("Response could not be saved and will not survive a reload.", SeverityNormal)
		}
	}
	return s.snapshotMessage(conversationID, placeholder.ID), nil
}

// CancelGeneration aborts the in-flight generation for a conversation, if any.
// Chunks that still arrive afterwards are ignored rather than applied.
func (s *ConversationService) CancelGeneration(conversationID string) {
	s.mu.Lock()
	gen := s.inflight[conversationID]
	if gen != nil {
		gen.cancelled = true
	}
	s.mu.Unlock()
	if gen != nil {
		gen.cancel()
	}
}

func (s *ConversationService) snapshotMessage(conversationID, messageID string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.find(conversationID)
	if conv == nil {
		return nil
	}
	for _, m := range conv.Messages {
		if m.ID == messageID {
			cp := *m
			if m.Sources != nil {
				cp.Sources = append([]string(nil), m.Sources...)
			}
			return &cp
		}
	}
	return nil
}

// contextWindow maps the newest n messages to provider turns, oldest first.
func contextWindow(messages []*model.Message, n int) []ChatTurn {
	start := 0
	if len(messages) > n {
		start = len(messages) - n
	}
	turns := make([]ChatTurn, 0, len(messages)-start)
	for _, m := range messages[start:] {
		turns = append(turns, ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}
