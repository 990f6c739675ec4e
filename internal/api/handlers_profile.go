package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/solace-labs/solace-memory/internal/api/respond"
	"github.com/solace-labs/solace-memory/internal/services"
)

type ProfileHandler struct {
	svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GetProfile returns the user's profile, creating it when absent.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	profile, created, err := h.svc.GetOrCreateProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"created": created,
	})
}

// ResolveUser maps a username to a stable user id, creating a profile when
// the username is new.
func (h *ProfileHandler) ResolveUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	userID, err := h.svc.ResolveUserID(r.Context(), in.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"userId": userID})
}

// UpdatePreferences merges the non-null fields of the request body into the
// stored preferences.
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Preferences map[string]interface{} `json:"preferences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	profile, err := h.svc.UpdatePreferences(r.Context(), userID, in.Preferences)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, profile)
}

// SavePreferences is the username-addressed variant used by the companion
// app: resolve (or create) the user, then merge preferences.
func (h *ProfileHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username    string                 `json:"username"`
		Preferences map[string]interface{} `json:"preferences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	userID, err := h.svc.ResolveUserID(r.Context(), in.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	profile, err := h.svc.UpdatePreferences(r.Context(), userID, in.Preferences)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, profile)
}

// GetPreferencesByUsername returns the preferences for a username, creating
// the profile when the username is new.
func (h *ProfileHandler) GetPreferencesByUsername(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	userID, err := h.svc.ResolveUserID(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	profile, _, err := h.svc.GetOrCreateProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":    username,
		"preferences": profile.Preferences,
	})
}
