package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
	"github.com/solace-labs/solace-memory/internal/summarizer"
)

// summaryInterval is the message-count period of the summarization trigger.
const summaryInterval = 10

// ConversationService manages per-user message threads. A user has at most
// one active conversation; every summaryInterval-th message triggers a digest
// of the most recent window.
type ConversationService struct {
	store      store.Store
	summarizer summarizer.Summarizer
	log        zerolog.Logger
}

func NewConversationService(s store.Store, sum summarizer.Summarizer, log zerolog.Logger) *ConversationService {
	return &ConversationService{store: s, summarizer: sum, log: log}
}

// AppendMessage appends to the user's active conversation, creating one when
// none is active and createIfAbsent is set. Returns the conversation id.
// Summarization failure never fails the append.
func (s *ConversationService) AppendMessage(ctx context.Context, userID string, msg model.Message, createIfAbsent bool) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: userID is required", model.ErrValidation)
	}
	if msg.Role != "user" && msg.Role != "assistant" {
		return "", fmt.Errorf("%w: role must be user or assistant", model.ErrValidation)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	conv, err := s.store.Conversations().Active(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		if !createIfAbsent {
			return "", model.ErrNotFound
		}
		return s.create(ctx, userID, msg)
	}
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("active conversation lookup failed on all tiers")
		return "", nil
	}

	conv.Messages = append(conv.Messages, msg)
	conv.LastUpdated = time.Now()
	s.maybeSummarize(ctx, conv)

	if _, err := s.store.Conversations().Replace(ctx, conv); err != nil {
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("conversation write failed on all tiers")
	}
	return conv.ID, nil
}

func (s *ConversationService) create(ctx context.Context, userID string, msg model.Message) (string, error) {
	now := time.Now()
	conv := &model.Conversation{
		ID:          uuid.New().String(),
		UserID:      userID,
		StartTime:   now,
		LastUpdated: now,
		Messages:    []model.Message{msg},
		Active:      true,
	}
	created, err := s.store.Conversations().Create(ctx, conv)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("conversation create failed on all tiers")
		return conv.ID, nil
	}
	return created.ID, nil
}

// maybeSummarize appends a summary entry when the message count has just
// reached a multiple of summaryInterval. The window is the most recent
// summaryInterval messages; the recorded range is inclusive and 0-based.
func (s *ConversationService) maybeSummarize(ctx context.Context, conv *model.Conversation) {
	n := len(conv.Messages)
	if n == 0 || n%summaryInterval != 0 {
		return
	}
	window := conv.Messages[n-summaryInterval:]
	text, err := s.summarizer.Summarize(ctx, window)
	if err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("summarization failed, continuing without summary")
		return
	}
	conv.Summaries = append(conv.Summaries, model.SummaryEntry{
		Text:         text,
		Timestamp:    time.Now(),
		MessageRange: [2]int{n - summaryInterval, n - 1},
	})
}

// History returns the messages of the given conversation, or of the active
// conversation when no id is given. Unknown ids yield an empty sequence, not
// an error.
func (s *ConversationService) History(ctx context.Context, userID, conversationID string) ([]model.Message, error) {
	var (
		conv *model.Conversation
		err  error
	)
	if conversationID != "" {
		conv, err = s.store.Conversations().Get(ctx, userID, conversationID)
	} else {
		conv, err = s.store.Conversations().Active(ctx, userID)
	}
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.log.Error().Err(err).Str("user_id", userID).Msg("conversation read failed on all tiers")
		}
		return []model.Message{}, nil
	}
	if conv.Messages == nil {
		return []model.Message{}, nil
	}
	return conv.Messages, nil
}

// Summaries lists conversations most recently updated first, each with its
// latest summary text (empty string when none exists yet).
func (s *ConversationService) Summaries(ctx context.Context, userID string, limit int) ([]model.ConversationSummary, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", model.ErrValidation)
	}
	convs, err := s.store.Conversations().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("conversation list failed on all tiers")
		return []model.ConversationSummary{}, nil
	}

	out := make([]model.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		row := model.ConversationSummary{
			ConversationID: conv.ID,
			StartTime:      conv.StartTime,
			LastUpdated:    conv.LastUpdated,
			MessageCount:   len(conv.Messages),
			IsActive:       conv.Active,
		}
		if len(conv.Summaries) > 0 {
			row.LatestSummary = conv.Summaries[len(conv.Summaries)-1].Text
		}
		out = append(out, row)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StartConversation deactivates the user's active conversation(s) so the next
// appended message opens a fresh thread. Data is retained. Deactivating every
// active conversation also self-heals duplicate-active states left by races.
func (s *ConversationService) StartConversation(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: userID is required", model.ErrValidation)
	}
	convs, err := s.store.Conversations().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("conversation list failed on all tiers")
		return nil
	}
	for _, conv := range convs {
		if !conv.Active {
			continue
		}
		conv.Active = false
		if _, err := s.store.Conversations().Replace(ctx, conv); err != nil {
			s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("conversation deactivate failed on all tiers")
		}
	}
	return nil
}
