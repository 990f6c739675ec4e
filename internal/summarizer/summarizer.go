// Package summarizer produces short digests of conversation message windows.
// The real implementation speaks an OpenAI-compatible chat-completions API;
// the mock is deterministic and used whenever no endpoint is configured.
package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/solace-labs/solace-memory/internal/model"
)

// maxSummaryRunes caps every digest; longer model output is truncated to 77
// runes plus an ellipsis.
const maxSummaryRunes = 80

// Summarizer digests a window of conversation messages into a short text.
type Summarizer interface {
	Summarize(ctx context.Context, window []model.Message) (string, error)
}

// Clip enforces the digest length cap.
func Clip(s string) string {
	r := []rune(s)
	if len(r) <= maxSummaryRunes {
		return s
	}
	return string(r[:maxSummaryRunes-3]) + "..."
}

// dominantEmotion returns the most frequent emotion label in the window,
// first label to reach the top count winning ties. Empty when no message
// carries a label.
func dominantEmotion(window []model.Message) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, msg := range window {
		if msg.Emotion == "" {
			continue
		}
		counts[msg.Emotion]++
		if counts[msg.Emotion] > bestCount {
			best, bestCount = msg.Emotion, counts[msg.Emotion]
		}
	}
	return best
}

// --- OpenAI-compatible client ---

const systemPrompt = "You are a conversation summarizer. Summarize the dialogue in at most 80 " +
	"characters, in the third person, focusing on the user's emotional state and key concerns."

// OpenAIClient calls a chat-completions endpoint to generate summaries.
type OpenAIClient struct {
	client *resty.Client
	model  string
}

// NewOpenAIClient creates a summarizer against an OpenAI-compatible base URL.
func NewOpenAIClient(baseURL, apiKey, chatModel string) *OpenAIClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &OpenAIClient{client: c, model: chatModel}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize renders the window as a transcript and asks the model for a
// digest. Errors are returned to the caller; the conversation store treats
// them as non-fatal.
func (o *OpenAIClient) Summarize(ctx context.Context, window []model.Message) (string, error) {
	if len(window) == 0 {
		return "", fmt.Errorf("summarizer: empty message window")
	}

	var transcript strings.Builder
	for _, msg := range window {
		role := "Assistant"
		if msg.Role == "user" {
			role = "User"
		}
		transcript.WriteString(role)
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
		transcript.WriteString("\n")
	}
	if mood := dominantEmotion(window); mood != "" {
		transcript.WriteString("\nDominant user emotion: ")
		transcript.WriteString(mood)
	}

	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Summarize this conversation in at most 80 characters:\n\n" + transcript.String()},
		},
		MaxTokens:   256,
		Temperature: 0.3,
	}

	var out chatResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("summarizer request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("summarizer status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("summarizer: empty completion")
	}
	return Clip(strings.TrimSpace(out.Choices[0].Message.Content)), nil
}

// --- Mock ---

// Mock is a deterministic summarizer used in tests and when no endpoint is
// configured.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Summarize(ctx context.Context, window []model.Message) (string, error) {
	if len(window) == 0 {
		return "", fmt.Errorf("summarizer: empty message window")
	}

	var first, last string
	for _, msg := range window {
		if msg.Role != "user" {
			continue
		}
		if first == "" {
			first = snippet(msg.Content)
		}
		last = snippet(msg.Content)
	}

	mood := dominantEmotion(window)
	summary := fmt.Sprintf("Talked over %d messages", len(window))
	if first != "" {
		summary = fmt.Sprintf("From %q to %q over %d messages", first, last, len(window))
	}
	if mood != "" {
		summary += ", mostly " + mood
	}
	return Clip(summary + "."), nil
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= 10 {
		return s
	}
	return string(r[:10]) + "..."
}
