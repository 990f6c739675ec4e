package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-labs/solace-memory/internal/model"
)

func TestProfile_GetOrCreate(t *testing.T) {
	svc := NewProfileService(newTestStore(t), zerolog.Nop())
	ctx := context.Background()

	p, created, err := svc.GetOrCreateProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "supportive", p.Preferences["tone"])
	assert.False(t, p.CreatedAt.IsZero())

	p2, created, err := svc.GetOrCreateProfile(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.UserID, p2.UserID)

	_, _, err = svc.GetOrCreateProfile(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestProfile_ResolveUserIDIsStable(t *testing.T) {
	svc := NewProfileService(newTestStore(t), zerolog.Nop())
	ctx := context.Background()

	id1, err := svc.ResolveUserID(ctx, "ada")
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := svc.ResolveUserID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same username resolves to the same id")

	other, err := svc.ResolveUserID(ctx, "grace")
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)

	_, err = svc.ResolveUserID(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestProfile_ResolveCreatesProfileWithUsername(t *testing.T) {
	s := newTestStore(t)
	svc := NewProfileService(s, zerolog.Nop())
	ctx := context.Background()

	id, err := svc.ResolveUserID(ctx, "ada")
	require.NoError(t, err)

	p, err := s.Profiles().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
	assert.Equal(t, "supportive", p.Preferences["tone"])
}

func TestProfile_UpdatePreferencesMerges(t *testing.T) {
	svc := NewProfileService(newTestStore(t), zerolog.Nop())
	ctx := context.Background()

	_, _, err := svc.GetOrCreateProfile(ctx, "u1")
	require.NoError(t, err)

	p, err := svc.UpdatePreferences(ctx, "u1", map[string]interface{}{
		"voice":  "calm",
		"length": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "supportive", p.Preferences["tone"], "unknown keys are kept")
	assert.Equal(t, "calm", p.Preferences["voice"])

	// nil values are skipped, not deleted.
	p, err = svc.UpdatePreferences(ctx, "u1", map[string]interface{}{"voice": nil})
	require.NoError(t, err)
	assert.Equal(t, "calm", p.Preferences["voice"])

	_, err = svc.UpdatePreferences(ctx, "", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestProfile_UpdatePreferencesCreatesWhenAbsent(t *testing.T) {
	svc := NewProfileService(newTestStore(t), zerolog.Nop())
	p, err := svc.UpdatePreferences(context.Background(), "fresh-user", map[string]interface{}{"tone": "direct"})
	require.NoError(t, err)
	assert.Equal(t, "direct", p.Preferences["tone"])
}
