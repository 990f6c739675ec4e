package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	now := time.Now().Truncate(time.Microsecond)

	// Profiles
	p := &model.UserProfile{
		UserID:      userID,
		Username:    "suite-" + userID[:8],
		Preferences: map[string]interface{}{"tone": "supportive"},
		CreatedAt:   now,
		LastActive:  now,
	}
	if _, err := s.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if got, err := s.Profiles().Get(ctx, userID); err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetProfile: got=%v err=%v", got, err)
	}
	if got, err := s.Profiles().GetByUsername(ctx, p.Username); err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetProfileByUsername: got=%v err=%v", got, err)
	}
	if _, err := s.Profiles().Get(ctx, "no-such-user"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetProfile unknown: want ErrNotFound, got %v", err)
	}

	// Create is idempotent: a second create returns the stored doc unchanged.
	dup := &model.UserProfile{UserID: userID, Username: p.Username, Preferences: map[string]interface{}{"tone": "curt"}, CreatedAt: now, LastActive: now}
	if got, err := s.Profiles().Create(ctx, dup); err != nil {
		t.Fatalf("CreateProfile duplicate: %v", err)
	} else if got.Preferences["tone"] != "supportive" {
		t.Fatalf("CreateProfile duplicate should return stored doc, got prefs=%v", got.Preferences)
	}

	p.Preferences["voice"] = "calm"
	p.LastActive = now.Add(time.Minute)
	if got, err := s.Profiles().Update(ctx, p); err != nil || got.Preferences["voice"] != "calm" {
		t.Fatalf("UpdateProfile: got=%v err=%v", got, err)
	}

	// Interactions
	ts1 := now
	ts2 := now.Add(2 * time.Second)
	in1 := &model.Interaction{ID: uuid.New().String(), UserID: userID, Timestamp: ts1, Text: "rough day at work", Emotion: "sad", Confidence: 0.8}
	in2 := &model.Interaction{ID: uuid.New().String(), UserID: userID, Timestamp: ts2, Text: "feeling better now", Emotion: "happy", Confidence: 0.9}
	if _, err := s.Interactions().Create(ctx, in2); err != nil {
		t.Fatalf("CreateInteraction in2: %v", err)
	}
	if _, err := s.Interactions().Create(ctx, in1); err != nil {
		t.Fatalf("CreateInteraction in1: %v", err)
	}
	lst, err := s.Interactions().List(ctx, userID)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListInteractions: n=%d err=%v", len(lst), err)
	}
	if !lst[0].Timestamp.Equal(ts1) || !lst[1].Timestamp.Equal(ts2) {
		t.Fatalf("ListInteractions not ascending: %v %v", lst[0].Timestamp, lst[1].Timestamp)
	}

	// AttachFeedback keys on the exact timestamp.
	fb := &model.Feedback{Rating: 5, Text: "helped", Timestamp: now.Add(time.Hour)}
	if ok, err := s.Interactions().AttachFeedback(ctx, userID, ts1, fb); err != nil || !ok {
		t.Fatalf("AttachFeedback: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Interactions().AttachFeedback(ctx, userID, now.Add(42*time.Hour), fb); err != nil || ok {
		t.Fatalf("AttachFeedback miss: want ok=false err=nil, got ok=%v err=%v", ok, err)
	}
	lst, err = s.Interactions().List(ctx, userID)
	if err != nil || lst[0].Feedback == nil || lst[0].Feedback.Rating != 5 {
		t.Fatalf("feedback not persisted: %+v err=%v", lst[0], err)
	}
	if lst[1].Feedback != nil {
		t.Fatalf("feedback attached to wrong interaction")
	}

	// Emotions
	for i, em := range []string{"sad", "happy", "happy"} {
		rec := &model.EmotionRecord{ID: uuid.New().String(), UserID: userID, Timestamp: now.Add(time.Duration(i) * time.Second), Emotion: em, Confidence: 0.7}
		if _, err := s.Emotions().Create(ctx, rec); err != nil {
			t.Fatalf("CreateEmotion %d: %v", i, err)
		}
	}
	ems, err := s.Emotions().List(ctx, userID)
	if err != nil || len(ems) != 3 {
		t.Fatalf("ListEmotions: n=%d err=%v", len(ems), err)
	}
	recent, err := s.Emotions().ListRecent(ctx, userID, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("ListRecentEmotions: n=%d err=%v", len(recent), err)
	}
	if recent[0].Timestamp.Before(recent[1].Timestamp) {
		t.Fatalf("ListRecentEmotions not descending")
	}

	// Conversations
	conv := &model.Conversation{
		ID:          uuid.New().String(),
		UserID:      userID,
		StartTime:   now,
		LastUpdated: now,
		Messages:    []model.Message{{Role: "user", Content: "hi", Timestamp: now}},
		Active:      true,
	}
	if _, err := s.Conversations().Create(ctx, conv); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if got, err := s.Conversations().Get(ctx, userID, conv.ID); err != nil || len(got.Messages) != 1 {
		t.Fatalf("GetConversation: got=%v err=%v", got, err)
	}
	if got, err := s.Conversations().Active(ctx, userID); err != nil || got.ID != conv.ID {
		t.Fatalf("ActiveConversation: got=%v err=%v", got, err)
	}

	conv.Messages = append(conv.Messages, model.Message{Role: "assistant", Content: "hello", Timestamp: now.Add(time.Second)})
	conv.LastUpdated = now.Add(time.Second)
	conv.Active = false
	if _, err := s.Conversations().Replace(ctx, conv); err != nil {
		t.Fatalf("ReplaceConversation: %v", err)
	}
	if got, err := s.Conversations().Get(ctx, userID, conv.ID); err != nil || len(got.Messages) != 2 || got.Active {
		t.Fatalf("GetConversation after replace: got=%+v err=%v", got, err)
	}
	if _, err := s.Conversations().Active(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ActiveConversation after deactivate: want ErrNotFound, got %v", err)
	}
	if _, err := s.Conversations().Replace(ctx, &model.Conversation{ID: uuid.New().String(), UserID: userID}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("ReplaceConversation unknown: want ErrNotFound, got %v", err)
	}
	if convs, err := s.Conversations().List(ctx, userID); err != nil || len(convs) != 1 {
		t.Fatalf("ListConversations: n=%d err=%v", len(convs), err)
	}

	// Memory records
	mr := &model.MemoryRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		SourceType: "interaction",
		SourceID:   in1.ID,
		Text:       "rough day at work",
		Summary:    "User expressed sad: rough day at work",
		Keywords:   []string{"rough", "work"},
		MemoryType: "emotion",
		Timestamp:  ts1,
	}
	if _, err := s.Memories().Create(ctx, mr); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}
	recs, err := s.Memories().List(ctx, userID)
	if err != nil || len(recs) != 1 || recs[0].Summary != mr.Summary {
		t.Fatalf("ListMemories: n=%d err=%v", len(recs), err)
	}

	// Isolation between users
	if lst, err := s.Interactions().List(ctx, "u-"+uuid.New().String()); err != nil || len(lst) != 0 {
		t.Fatalf("ListInteractions other user: n=%d err=%v", len(lst), err)
	}
}
