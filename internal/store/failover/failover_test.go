package failover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
	"github.com/solace-labs/solace-memory/internal/store/localfile"
	"github.com/solace-labs/solace-memory/internal/store/storetest"
)

var errDown = errors.New("connection refused")

// downStore fails every operation with an infrastructure error.
type downStore struct{ calls int }

func (d *downStore) Profiles() store.Profiles           { return downProfiles{d} }
func (d *downStore) Interactions() store.Interactions   { return downInteractions{d} }
func (d *downStore) Emotions() store.Emotions           { return downEmotions{d} }
func (d *downStore) Conversations() store.Conversations { return downConversations{d} }
func (d *downStore) Memories() store.Memories           { return downMemories{d} }

func (d *downStore) fail() error {
	d.calls++
	return errDown
}

type downProfiles struct{ d *downStore }

func (p downProfiles) Create(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	return nil, p.d.fail()
}
func (p downProfiles) Get(context.Context, string) (*model.UserProfile, error) {
	return nil, p.d.fail()
}
func (p downProfiles) GetByUsername(context.Context, string) (*model.UserProfile, error) {
	return nil, p.d.fail()
}
func (p downProfiles) Update(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	return nil, p.d.fail()
}

type downInteractions struct{ d *downStore }

func (i downInteractions) Create(context.Context, *model.Interaction) (*model.Interaction, error) {
	return nil, i.d.fail()
}
func (i downInteractions) List(context.Context, string) ([]*model.Interaction, error) {
	return nil, i.d.fail()
}
func (i downInteractions) AttachFeedback(context.Context, string, time.Time, *model.Feedback) (bool, error) {
	return false, i.d.fail()
}

type downEmotions struct{ d *downStore }

func (e downEmotions) Create(context.Context, *model.EmotionRecord) (*model.EmotionRecord, error) {
	return nil, e.d.fail()
}
func (e downEmotions) List(context.Context, string) ([]*model.EmotionRecord, error) {
	return nil, e.d.fail()
}
func (e downEmotions) ListRecent(context.Context, string, int) ([]*model.EmotionRecord, error) {
	return nil, e.d.fail()
}

type downConversations struct{ d *downStore }

func (c downConversations) Create(context.Context, *model.Conversation) (*model.Conversation, error) {
	return nil, c.d.fail()
}
func (c downConversations) Get(context.Context, string, string) (*model.Conversation, error) {
	return nil, c.d.fail()
}
func (c downConversations) Active(context.Context, string) (*model.Conversation, error) {
	return nil, c.d.fail()
}
func (c downConversations) List(context.Context, string) ([]*model.Conversation, error) {
	return nil, c.d.fail()
}
func (c downConversations) Replace(context.Context, *model.Conversation) (*model.Conversation, error) {
	return nil, c.d.fail()
}

type downMemories struct{ d *downStore }

func (m downMemories) Create(context.Context, *model.MemoryRecord) (*model.MemoryRecord, error) {
	return nil, m.d.fail()
}
func (m downMemories) List(context.Context, string) ([]*model.MemoryRecord, error) {
	return nil, m.d.fail()
}

// notFoundProfiles returns the caller-visible sentinel, which must pass
// through without fallback.
type notFoundStore struct {
	downStore
}

type notFoundProfiles struct{}

func (notFoundStore) Profiles() store.Profiles { return notFoundProfiles{} }

func (notFoundProfiles) Create(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	return nil, model.ErrNotFound
}
func (notFoundProfiles) Get(context.Context, string) (*model.UserProfile, error) {
	return nil, model.ErrNotFound
}
func (notFoundProfiles) GetByUsername(context.Context, string) (*model.UserProfile, error) {
	return nil, model.ErrNotFound
}
func (notFoundProfiles) Update(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	return nil, model.ErrNotFound
}

func newLocal(t *testing.T) store.Store {
	t.Helper()
	s, err := localfile.New(t.TempDir())
	require.NoError(t, err)
	return s
}

// The router with a dead remote must behave exactly like the local tier.
func TestRouter_Suite_RemoteDown(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(&downStore{}, newLocal(t), time.Second, zerolog.Nop())
	})
}

// The router with no remote at all serves local-only.
func TestRouter_Suite_LocalOnly(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(nil, newLocal(t), time.Second, zerolog.Nop())
	})
}

func TestRouter_FallbackIsPerCall(t *testing.T) {
	remote := &downStore{}
	r := New(remote, newLocal(t), time.Second, zerolog.Nop())
	ctx := context.Background()
	userID := uuid.New().String()

	_, err := r.Profiles().Create(ctx, &model.UserProfile{UserID: userID, CreatedAt: time.Now(), LastActive: time.Now()})
	require.NoError(t, err)
	_, err = r.Profiles().Get(ctx, userID)
	require.NoError(t, err)

	// Every call re-attempts the remote tier first; fallback never sticks.
	assert.Equal(t, 2, remote.calls)
}

func TestRouter_WriteSurvivesRemoteOutage(t *testing.T) {
	r := New(&downStore{}, newLocal(t), time.Second, zerolog.Nop())
	ctx := context.Background()
	userID := uuid.New().String()
	ts := time.Now().Truncate(time.Microsecond)

	_, err := r.Interactions().Create(ctx, &model.Interaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Timestamp: ts,
		Text:      "written during outage",
		Emotion:   "anxious",
	})
	require.NoError(t, err)

	lst, err := r.Interactions().List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lst, 1)
	assert.Equal(t, "written during outage", lst[0].Text)
}

func TestRouter_SentinelErrorsDoNotFallBack(t *testing.T) {
	local := newLocal(t)
	ctx := context.Background()
	userID := uuid.New().String()

	// Seed the local tier; a remote ErrNotFound must still pass through
	// rather than being masked by local data.
	_, err := local.Profiles().Create(ctx, &model.UserProfile{UserID: userID, CreatedAt: time.Now(), LastActive: time.Now()})
	require.NoError(t, err)

	r := New(&notFoundStore{}, local, time.Second, zerolog.Nop())
	_, err = r.Profiles().Get(ctx, userID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRouter_RemoteAttemptIsBounded(t *testing.T) {
	slow := &slowStore{delay: 200 * time.Millisecond}
	r := New(slow, newLocal(t), 10*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	start := time.Now()
	lst, err := r.Interactions().List(ctx, "someone")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Empty(t, lst)
	assert.Less(t, elapsed, 150*time.Millisecond, "remote attempt should be cut off by the router timeout")
}

// slowStore blocks until the bounded context expires.
type slowStore struct {
	downStore
	delay time.Duration
}

type slowInteractions struct{ s *slowStore }

func (s *slowStore) Interactions() store.Interactions { return slowInteractions{s} }

func (i slowInteractions) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	return nil, i.wait(ctx)
}
func (i slowInteractions) List(ctx context.Context, userID string) ([]*model.Interaction, error) {
	return nil, i.wait(ctx)
}
func (i slowInteractions) AttachFeedback(ctx context.Context, userID string, ts time.Time, fb *model.Feedback) (bool, error) {
	return false, i.wait(ctx)
}

func (i slowInteractions) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(i.s.delay):
		return errDown
	}
}
