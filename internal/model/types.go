package model

import "time"

// UserProfile holds identity and open-ended preferences for one user.
// Preferences keep unknown keys across round-trips; values are restricted to
// JSON scalars (string, number, bool, null) by convention.
type UserProfile struct {
	UserID      string                 `json:"userId"`
	Username    string                 `json:"username,omitempty"`
	Preferences map[string]interface{} `json:"preferences"`
	CreatedAt   time.Time              `json:"createdAt"`
	LastActive  time.Time              `json:"lastActive"`
}

// Feedback is attached to an interaction after the fact, keyed by the
// interaction's timestamp. Rating is stored verbatim; range enforcement is a
// caller concern.
type Feedback struct {
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Interaction is one user utterance plus the agent's response. Immutable once
// written except for the feedback attachment.
type Interaction struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"userId"`
	Timestamp  time.Time              `json:"timestamp"`
	Text       string                 `json:"text"`
	Emotion    string                 `json:"emotion"`
	Confidence float64                `json:"confidence"`
	Suggestion string                 `json:"suggestion"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Feedback   *Feedback              `json:"feedback,omitempty"`
}

// EmotionRecord is the emotion-focused projection of an interaction, written
// alongside it and never mutated independently.
type EmotionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Context    string    `json:"context,omitempty"`
}

// UserStats is derived from the ledger on demand, never persisted.
type UserStats struct {
	TotalInteractions   int     `json:"totalInteractions"`
	MostFrequentEmotion string  `json:"mostFrequentEmotion,omitempty"`
	AverageFeedback     float64 `json:"averageFeedback"`
}

// Message is one turn inside a conversation thread.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SummaryEntry records a digest of a message window. MessageRange is the
// inclusive [start, end] pair of 0-based message indices that were summarized.
type SummaryEntry struct {
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	MessageRange [2]int    `json:"messageRange"`
}

// Conversation is an ordered message thread. At most one conversation per
// user is active at a time.
type Conversation struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	StartTime   time.Time      `json:"startTime"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Messages    []Message      `json:"messages"`
	Active      bool           `json:"active"`
	Summaries   []SummaryEntry `json:"summaries,omitempty"`
}

// ConversationSummary is the listing row returned by the summaries query.
type ConversationSummary struct {
	ConversationID string    `json:"conversationId"`
	StartTime      time.Time `json:"startTime"`
	LastUpdated    time.Time `json:"lastUpdated"`
	MessageCount   int       `json:"messageCount"`
	IsActive       bool      `json:"isActive"`
	LatestSummary  string    `json:"latestSummary"`
}

// MemoryRecord is a retrieval unit derived from an interaction, used only by
// keyword relevance search.
type MemoryRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	SourceType string    `json:"sourceType"`
	SourceID   string    `json:"sourceId"`
	Text       string    `json:"text,omitempty"`
	Summary    string    `json:"summary"`
	Keywords   []string  `json:"keywords,omitempty"`
	MemoryType string    `json:"memoryType"`
	Timestamp  time.Time `json:"timestamp"`
}

// TermCount is one (term, frequency) pair from the frequent-terms query.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
