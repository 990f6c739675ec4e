package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/solace-labs/solace-memory/internal/api/respond"
	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/services"
)

type ConversationHandler struct {
	svc *services.ConversationService
}

func NewConversationHandler(svc *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// AppendMessage appends one message to the user's active conversation,
// creating a conversation when none is active.
func (h *ConversationHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Emotion   string    `json:"emotion"`
		Timestamp time.Time `json:"timestamp,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	convID, err := h.svc.AppendMessage(r.Context(), userID, model.Message{
		Role:      in.Role,
		Content:   in.Content,
		Emotion:   in.Emotion,
		Timestamp: in.Timestamp,
	}, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"conversationId": convID})
}

// History returns the messages of the conversation identified by the
// conversationId query parameter, or of the active conversation when omitted.
func (h *ConversationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	convID := r.URL.Query().Get("conversationId")
	msgs, err := h.svc.History(r.Context(), userID, convID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, msgs)
}

func (h *ConversationHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respond.WriteBadRequest(w, "limit must be an integer")
		return
	}
	rows, err := h.svc.Summaries(r.Context(), mux.Vars(r)["userId"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rows)
}

// StartConversation closes the active conversation so the next message opens
// a fresh thread.
func (h *ConversationHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StartConversation(r.Context(), mux.Vars(r)["userId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "started"})
}
