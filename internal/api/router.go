package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/solace-labs/solace-memory/internal/api/recovery"
	"github.com/solace-labs/solace-memory/internal/services"
	"github.com/solace-labs/solace-memory/internal/store"
	"github.com/solace-labs/solace-memory/internal/summarizer"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(s store.Store, sum summarizer.Summarizer, remote HealthPinger, corsOrigins []string, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)
	router.Use(corsMiddleware(corsOrigins))

	// Domain services
	profileService := services.NewProfileService(s, log)
	ledgerService := services.NewLedgerService(s, log)
	conversationService := services.NewConversationService(s, sum, log)
	searchService := services.NewSearchService(s, log)

	// Handlers
	healthHandler := NewHealthHandler(remote)
	profileHandler := NewProfileHandler(profileService)
	ledgerHandler := NewLedgerHandler(ledgerService)
	conversationHandler := NewConversationHandler(conversationService)
	searchHandler := NewSearchHandler(searchService)

	// Preflight requests need a matching route for the middlewares to run;
	// the CORS middleware answers them before this no-op handler is reached.
	router.PathPrefix("/api/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// User and preference endpoints
	router.HandleFunc("/api/users/resolve", profileHandler.ResolveUser).Methods("POST")
	router.HandleFunc("/api/users/preferences", profileHandler.SavePreferences).Methods("POST")
	router.HandleFunc("/api/users/by-name/{username}/preferences", profileHandler.GetPreferencesByUsername).Methods("GET")
	router.HandleFunc("/api/users/{userId}/profile", profileHandler.GetProfile).Methods("GET")
	router.HandleFunc("/api/users/{userId}/preferences", profileHandler.UpdatePreferences).Methods("PATCH")

	// Interaction ledger endpoints
	router.HandleFunc("/api/users/{userId}/interactions", ledgerHandler.AppendInteraction).Methods("POST")
	router.HandleFunc("/api/users/{userId}/interactions/feedback", ledgerHandler.AttachFeedback).Methods("POST")
	router.HandleFunc("/api/users/{userId}/stats", ledgerHandler.GetStats).Methods("GET")

	// Emotion history endpoints
	router.HandleFunc("/api/users/{userId}/emotions/recent", ledgerHandler.RecentEmotions).Methods("GET")
	router.HandleFunc("/api/users/{userId}/emotions/trend", ledgerHandler.Trend).Methods("GET")
	router.HandleFunc("/api/users/{userId}/emotions/distribution", ledgerHandler.Distribution).Methods("GET")
	router.HandleFunc("/api/users/{userId}/active-days", ledgerHandler.ActiveDays).Methods("GET")

	// Conversation endpoints
	router.HandleFunc("/api/users/{userId}/conversations/messages", conversationHandler.AppendMessage).Methods("POST")
	router.HandleFunc("/api/users/{userId}/conversations/history", conversationHandler.History).Methods("GET")
	router.HandleFunc("/api/users/{userId}/conversations/summaries", conversationHandler.Summaries).Methods("GET")
	router.HandleFunc("/api/users/{userId}/conversations/start", conversationHandler.StartConversation).Methods("POST")

	// Search endpoints
	router.HandleFunc("/api/users/{userId}/search/terms", searchHandler.FrequentTerms).Methods("GET")
	router.HandleFunc("/api/users/{userId}/search", searchHandler.KeywordMatch).Methods("GET")
	router.HandleFunc("/api/users/{userId}/memories", searchHandler.RelevantMemories).Methods("GET")

	return router
}
