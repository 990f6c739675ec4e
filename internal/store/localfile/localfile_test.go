package localfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
	"github.com/solace-labs/solace-memory/internal/store/storetest"
)

func TestLocalFile_Suite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestLocalFile_MissingFilesReadAsEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	lst, err := s.Interactions().List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, lst)

	_, err = s.Profiles().Get(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Conversations().Active(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLocalFile_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	userID := uuid.New().String()

	s1, err := New(dir)
	require.NoError(t, err)
	_, err = s1.Profiles().Create(ctx, &model.UserProfile{
		UserID:      userID,
		Preferences: map[string]interface{}{"tone": "supportive"},
		CreatedAt:   time.Now(),
		LastActive:  time.Now(),
	})
	require.NoError(t, err)
	_, err = s1.Interactions().Create(ctx, &model.Interaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Timestamp: time.Now().Truncate(time.Microsecond),
		Text:      "persisted across restarts",
		Emotion:   "happy",
	})
	require.NoError(t, err)

	// A fresh store over the same directory sees everything.
	s2, err := New(dir)
	require.NoError(t, err)
	p, err := s2.Profiles().Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "supportive", p.Preferences["tone"])

	lst, err := s2.Interactions().List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lst, 1)
	assert.Equal(t, "persisted across restarts", lst[0].Text)
}

func TestLocalFile_WritesAreAtomic(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.Profiles().Create(ctx, &model.UserProfile{UserID: "u1", CreatedAt: time.Now(), LastActive: time.Now()})
	require.NoError(t, err)

	// No temp files should survive a completed write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()), "unexpected file %s", e.Name())
	}
}
