package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/solace-labs/solace-memory/internal/api/respond"
	"github.com/solace-labs/solace-memory/internal/services"
)

type SearchHandler struct {
	svc *services.SearchService
}

func NewSearchHandler(svc *services.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

func (h *SearchHandler) FrequentTerms(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respond.WriteBadRequest(w, "limit must be an integer")
		return
	}
	terms, err := h.svc.FrequentTerms(r.Context(), mux.Vars(r)["userId"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, terms)
}

func (h *SearchHandler) KeywordMatch(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respond.WriteBadRequest(w, "limit must be an integer")
		return
	}
	hits, err := h.svc.KeywordMatch(r.Context(), mux.Vars(r)["userId"], r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, hits)
}

func (h *SearchHandler) RelevantMemories(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respond.WriteBadRequest(w, "limit must be an integer")
		return
	}
	recs, err := h.svc.RelevantMemories(r.Context(), mux.Vars(r)["userId"], r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, recs)
}
