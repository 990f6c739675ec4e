// Package failover routes every store operation remote-first with transparent
// degrade to the local file tier. Callers never observe which tier served a
// request; only caller-visible errors (not found, validation, conflict) pass
// through, everything else is contained here.
package failover

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
)

// Router implements store.Store over a remote and a local tier. Fallback is
// per call, never sticky: each operation re-attempts the remote tier first.
type Router struct {
	remote  store.Store // nil in local-only deployments
	local   store.Store
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a router. remote may be nil; timeout bounds every remote attempt
// before the local tier is tried.
func New(remote, local store.Store, timeout time.Duration, log zerolog.Logger) *Router {
	return &Router{remote: remote, local: local, timeout: timeout, log: log}
}

func (r *Router) Profiles() store.Profiles           { return &profiles{r} }
func (r *Router) Interactions() store.Interactions   { return &interactions{r} }
func (r *Router) Emotions() store.Emotions           { return &emotions{r} }
func (r *Router) Conversations() store.Conversations { return &conversations{r} }
func (r *Router) Memories() store.Memories           { return &memories{r} }

func (r *Router) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// infrastructure reports whether err should trigger fallback. The caller-visible
// error taxonomy is identical on both tiers, so those sentinels never do.
func infrastructure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, model.ErrNotFound) &&
		!errors.Is(err, model.ErrValidation) &&
		!errors.Is(err, model.ErrConflict)
}

func attempt[T any](ctx context.Context, r *Router, op string, remote, local func(context.Context) (T, error)) (T, error) {
	if r.remote != nil {
		rctx, cancel := r.bound(ctx)
		v, err := remote(rctx)
		cancel()
		if !infrastructure(err) {
			return v, err
		}
		r.log.Warn().Err(err).Str("op", op).Msg("remote backend failed, serving from local tier")
	}
	return local(ctx)
}

// --- Profiles ---

type profiles struct{ r *Router }

func (p *profiles) Create(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	return attempt(ctx, p.r, "profiles.create",
		func(c context.Context) (*model.UserProfile, error) { return p.r.remote.Profiles().Create(c, in) },
		func(c context.Context) (*model.UserProfile, error) { return p.r.local.Profiles().Create(c, in) })
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	return attempt(ctx, p.r, "profiles.get",
		func(c context.Context) (*model.UserProfile, error) { return p.r.remote.Profiles().Get(c, userID) },
		func(c context.Context) (*model.UserProfile, error) { return p.r.local.Profiles().Get(c, userID) })
}

func (p *profiles) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	return attempt(ctx, p.r, "profiles.get_by_username",
		func(c context.Context) (*model.UserProfile, error) {
			return p.r.remote.Profiles().GetByUsername(c, username)
		},
		func(c context.Context) (*model.UserProfile, error) {
			return p.r.local.Profiles().GetByUsername(c, username)
		})
}

func (p *profiles) Update(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	return attempt(ctx, p.r, "profiles.update",
		func(c context.Context) (*model.UserProfile, error) { return p.r.remote.Profiles().Update(c, in) },
		func(c context.Context) (*model.UserProfile, error) { return p.r.local.Profiles().Update(c, in) })
}

// --- Interactions ---

type interactions struct{ r *Router }

func (i *interactions) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	return attempt(ctx, i.r, "interactions.create",
		func(c context.Context) (*model.Interaction, error) { return i.r.remote.Interactions().Create(c, in) },
		func(c context.Context) (*model.Interaction, error) { return i.r.local.Interactions().Create(c, in) })
}

func (i *interactions) List(ctx context.Context, userID string) ([]*model.Interaction, error) {
	return attempt(ctx, i.r, "interactions.list",
		func(c context.Context) ([]*model.Interaction, error) { return i.r.remote.Interactions().List(c, userID) },
		func(c context.Context) ([]*model.Interaction, error) { return i.r.local.Interactions().List(c, userID) })
}

func (i *interactions) AttachFeedback(ctx context.Context, userID string, ts time.Time, fb *model.Feedback) (bool, error) {
	return attempt(ctx, i.r, "interactions.attach_feedback",
		func(c context.Context) (bool, error) {
			return i.r.remote.Interactions().AttachFeedback(c, userID, ts, fb)
		},
		func(c context.Context) (bool, error) {
			return i.r.local.Interactions().AttachFeedback(c, userID, ts, fb)
		})
}

// --- Emotions ---

type emotions struct{ r *Router }

func (e *emotions) Create(ctx context.Context, rec *model.EmotionRecord) (*model.EmotionRecord, error) {
	return attempt(ctx, e.r, "emotions.create",
		func(c context.Context) (*model.EmotionRecord, error) { return e.r.remote.Emotions().Create(c, rec) },
		func(c context.Context) (*model.EmotionRecord, error) { return e.r.local.Emotions().Create(c, rec) })
}

func (e *emotions) List(ctx context.Context, userID string) ([]*model.EmotionRecord, error) {
	return attempt(ctx, e.r, "emotions.list",
		func(c context.Context) ([]*model.EmotionRecord, error) { return e.r.remote.Emotions().List(c, userID) },
		func(c context.Context) ([]*model.EmotionRecord, error) { return e.r.local.Emotions().List(c, userID) })
}

func (e *emotions) ListRecent(ctx context.Context, userID string, limit int) ([]*model.EmotionRecord, error) {
	return attempt(ctx, e.r, "emotions.list_recent",
		func(c context.Context) ([]*model.EmotionRecord, error) {
			return e.r.remote.Emotions().ListRecent(c, userID, limit)
		},
		func(c context.Context) ([]*model.EmotionRecord, error) {
			return e.r.local.Emotions().ListRecent(c, userID, limit)
		})
}

// --- Conversations ---

type conversations struct{ r *Router }

func (v *conversations) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	return attempt(ctx, v.r, "conversations.create",
		func(c context.Context) (*model.Conversation, error) { return v.r.remote.Conversations().Create(c, conv) },
		func(c context.Context) (*model.Conversation, error) { return v.r.local.Conversations().Create(c, conv) })
}

func (v *conversations) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	return attempt(ctx, v.r, "conversations.get",
		func(c context.Context) (*model.Conversation, error) {
			return v.r.remote.Conversations().Get(c, userID, conversationID)
		},
		func(c context.Context) (*model.Conversation, error) {
			return v.r.local.Conversations().Get(c, userID, conversationID)
		})
}

func (v *conversations) Active(ctx context.Context, userID string) (*model.Conversation, error) {
	return attempt(ctx, v.r, "conversations.active",
		func(c context.Context) (*model.Conversation, error) { return v.r.remote.Conversations().Active(c, userID) },
		func(c context.Context) (*model.Conversation, error) { return v.r.local.Conversations().Active(c, userID) })
}

func (v *conversations) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	return attempt(ctx, v.r, "conversations.list",
		func(c context.Context) ([]*model.Conversation, error) { return v.r.remote.Conversations().List(c, userID) },
		func(c context.Context) ([]*model.Conversation, error) { return v.r.local.Conversations().List(c, userID) })
}

func (v *conversations) Replace(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	return attempt(ctx, v.r, "conversations.replace",
		func(c context.Context) (*model.Conversation, error) { return v.r.remote.Conversations().Replace(c, conv) },
		func(c context.Context) (*model.Conversation, error) { return v.r.local.Conversations().Replace(c, conv) })
}

// --- Memories ---

type memories struct{ r *Router }

func (m *memories) Create(ctx context.Context, rec *model.MemoryRecord) (*model.MemoryRecord, error) {
	return attempt(ctx, m.r, "memories.create",
		func(c context.Context) (*model.MemoryRecord, error) { return m.r.remote.Memories().Create(c, rec) },
		func(c context.Context) (*model.MemoryRecord, error) { return m.r.local.Memories().Create(c, rec) })
}

func (m *memories) List(ctx context.Context, userID string) ([]*model.MemoryRecord, error) {
	return attempt(ctx, m.r, "memories.list",
		func(c context.Context) ([]*model.MemoryRecord, error) { return m.r.remote.Memories().List(c, userID) },
		func(c context.Context) ([]*model.MemoryRecord, error) { return m.r.local.Memories().List(c, userID) })
}
