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
)

// ProfileService owns user identity and preferences. Profiles are created
// implicitly on first reference; the agent is never blocked for lack of one.
type ProfileService struct {
	store store.Store
	log   zerolog.Logger
}

func NewProfileService(s store.Store, log zerolog.Logger) *ProfileService {
	return &ProfileService{store: s, log: log}
}

func defaultPreferences() map[string]interface{} {
	return map[string]interface{}{"tone": "supportive"}
}

func newProfile(userID, username string, now time.Time) *model.UserProfile {
	return &model.UserProfile{
		UserID:      userID,
		Username:    username,
		Preferences: defaultPreferences(),
		CreatedAt:   now,
		LastActive:  now,
	}
}

// GetOrCreateProfile returns the stored profile, creating one with default
// preferences when absent. The second return reports whether a profile was
// created by this call. Storage failure degrades to an unpersisted default
// rather than an error.
func (s *ProfileService) GetOrCreateProfile(ctx context.Context, userID string) (*model.UserProfile, bool, error) {
	if userID == "" {
		return nil, false, fmt.Errorf("%w: userID is required", model.ErrValidation)
	}

	p, err := s.store.Profiles().Get(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		s.log.Error().Err(err).Str("user_id", userID).Msg("profile read failed on all tiers, synthesizing default")
		return newProfile(userID, "", time.Now()), true, nil
	}

	created, err := s.store.Profiles().Create(ctx, newProfile(userID, "", time.Now()))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("profile create failed on all tiers, synthesizing default")
		return newProfile(userID, "", time.Now()), true, nil
	}
	return created, true, nil
}

// ResolveUserID maps a username to its stable user id, creating a fresh
// profile with a generated id when the username is unknown. Idempotent for an
// existing username within a tier.
func (s *ProfileService) ResolveUserID(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: username is required", model.ErrValidation)
	}

	p, err := s.store.Profiles().GetByUsername(ctx, username)
	if err == nil {
		return p.UserID, nil
	}

	userID := uuid.New().String()
	if !errors.Is(err, model.ErrNotFound) {
		s.log.Error().Err(err).Str("username", username).Msg("username lookup failed on all tiers, issuing unpersisted id")
		return userID, nil
	}

	if _, err := s.store.Profiles().Create(ctx, newProfile(userID, username, time.Now())); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("profile create failed on all tiers")
	}
	return userID, nil
}

// UpdatePreferences merges the non-nil fields of partial into the stored
// preferences and bumps last_active. It fails with ErrNotFound only when the
// profile cannot be created on any tier.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, partial map[string]interface{}) (*model.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", model.ErrValidation)
	}

	p, err := s.store.Profiles().Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		p, err = s.store.Profiles().Create(ctx, newProfile(userID, "", time.Now()))
	}
	if err != nil {
		return nil, fmt.Errorf("profile unavailable on any tier: %w", model.ErrNotFound)
	}

	if p.Preferences == nil {
		p.Preferences = map[string]interface{}{}
	}
	for k, v := range partial {
		if v == nil {
			continue
		}
		p.Preferences[k] = v
	}
	if now := time.Now(); now.After(p.LastActive) {
		p.LastActive = now
	}

	updated, err := s.store.Profiles().Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("profile update failed on any tier: %w", model.ErrNotFound)
	}
	return updated, nil
}
