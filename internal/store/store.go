package store

import (
	"context"
	"time"

	"github.com/solace-labs/solace-memory/internal/model"
)

// Store exposes persistence operations required by services. The remote
// (Postgres) and local (JSON file) tiers implement the same contract so the
// failover router can substitute one for the other mid-call.
// Implementations live under internal/store/<driver>/.
type Store interface {
	Profiles() Profiles
	Interactions() Interactions
	Emotions() Emotions
	Conversations() Conversations
	Memories() Memories
}

type Profiles interface {
	// Create persists a new profile. Creating an already existing userID is
	// idempotent: the stored profile is returned unchanged.
	Create(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error)
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (*model.UserProfile, error)
	// Update replaces the stored profile document.
	Update(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error)
}

type Interactions interface {
	Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error)
	// List returns all interactions for the user in ascending timestamp order.
	List(ctx context.Context, userID string) ([]*model.Interaction, error)
	// AttachFeedback finds the interaction with exactly the given timestamp.
	// It reports false, not an error, when no interaction matches.
	AttachFeedback(ctx context.Context, userID string, ts time.Time, fb *model.Feedback) (bool, error)
}

type Emotions interface {
	Create(ctx context.Context, rec *model.EmotionRecord) (*model.EmotionRecord, error)
	// List returns all emotion records in ascending timestamp order.
	List(ctx context.Context, userID string) ([]*model.EmotionRecord, error)
	// ListRecent returns up to limit records, most recent first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*model.EmotionRecord, error)
}

type Conversations interface {
	Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error)
	// Active returns the most recently updated active conversation, or
	// model.ErrNotFound when none is active.
	Active(ctx context.Context, userID string) (*model.Conversation, error)
	// List returns all conversations ordered by last_updated descending.
	List(ctx context.Context, userID string) ([]*model.Conversation, error)
	// Replace overwrites the whole conversation document.
	Replace(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
}

type Memories interface {
	Create(ctx context.Context, m *model.MemoryRecord) (*model.MemoryRecord, error)
	// List returns all memory records in ascending timestamp order.
	List(ctx context.Context, userID string) ([]*model.MemoryRecord, error)
}
