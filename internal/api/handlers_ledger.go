package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/solace-labs/solace-memory/internal/api/respond"
	"github.com/solace-labs/solace-memory/internal/services"
)

type LedgerHandler struct {
	svc *services.LedgerService
}

func NewLedgerHandler(svc *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

// queryInt parses an optional non-negative integer query parameter, returning
// fallback when absent.
func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// AppendInteraction records one agent turn and returns the timestamp used,
// which is the key for later feedback attachment.
func (h *LedgerHandler) AppendInteraction(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Text       string                 `json:"text"`
		Emotion    string                 `json:"emotion"`
		Confidence float64                `json:"confidence"`
		Suggestion string                 `json:"suggestion"`
		Metadata   map[string]interface{} `json:"metadata"`
		Timestamp  *time.Time             `json:"timestamp,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	ts, err := h.svc.Append(r.Context(), userID, in.Text, in.Emotion, in.Confidence, in.Suggestion, in.Metadata, in.Timestamp)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"timestamp": ts})
}

// AttachFeedback attaches a rating to the interaction with the exactly
// matching timestamp; "attached" reports whether a match was found.
func (h *LedgerHandler) AttachFeedback(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Timestamp time.Time `json:"timestamp"`
		Rating    int       `json:"rating"`
		Text      string    `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	ok, err := h.svc.AttachFeedback(r.Context(), userID, in.Timestamp, in.Rating, in.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"attached": ok})
}

func (h *LedgerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, stats)
}

func (h *LedgerHandler) RecentEmotions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respond.WriteBadRequest(w, "limit must be an integer")
		return
	}
	recs, err := h.svc.RecentEmotions(r.Context(), mux.Vars(r)["userId"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, recs)
}

func (h *LedgerHandler) Trend(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", 7)
	if !ok {
		respond.WriteBadRequest(w, "days must be an integer")
		return
	}
	trend, err := h.svc.Trend(r.Context(), mux.Vars(r)["userId"], days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, trend)
}

func (h *LedgerHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	dist, err := h.svc.Distribution(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, dist)
}

func (h *LedgerHandler) ActiveDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.ActiveDays(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, days)
}
