package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace-labs/solace-memory/internal/store/localfile"
	"github.com/solace-labs/solace-memory/internal/summarizer"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := localfile.New(t.TempDir())
	require.NoError(t, err)
	router := NewRouter(s, summarizer.NewMock(), nil, []string{"*"}, zerolog.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func makeRequest(t *testing.T, srv *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func parseResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	resp := makeRequest(t, srv, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	parseResponse(t, resp, &result)
	assert.Equal(t, "healthy", result["status"])
	assert.Equal(t, "local-only", result["backend"])
	assert.NotNil(t, result["timestamp"])
}

func TestAPI_ProfileOperations(t *testing.T) {
	srv := newTestServer(t)

	var userID string

	t.Run("Resolve Username", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/resolve", map[string]string{"username": "ada"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]string
		parseResponse(t, resp, &result)
		userID = result["userId"]
		require.NotEmpty(t, userID)

		// Resolving again returns the same id.
		resp = makeRequest(t, srv, "POST", "/api/users/resolve", map[string]string{"username": "ada"})
		parseResponse(t, resp, &result)
		assert.Equal(t, userID, result["userId"])
	})

	t.Run("Resolve Empty Username", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/resolve", map[string]string{"username": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Get Profile", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/"+userID+"/profile", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Profile struct {
				UserID      string                 `json:"userId"`
				Username    string                 `json:"username"`
				Preferences map[string]interface{} `json:"preferences"`
			} `json:"profile"`
			Created bool `json:"created"`
		}
		parseResponse(t, resp, &result)
		assert.Equal(t, userID, result.Profile.UserID)
		assert.Equal(t, "ada", result.Profile.Username)
		assert.Equal(t, "supportive", result.Profile.Preferences["tone"])
		assert.False(t, result.Created)
	})

	t.Run("Get Profile Creates Unknown User", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/brand-new-id/profile", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Created bool `json:"created"`
		}
		parseResponse(t, resp, &result)
		assert.True(t, result.Created)
	})

	t.Run("Patch Preferences", func(t *testing.T) {
		resp := makeRequest(t, srv, "PATCH", "/api/users/"+userID+"/preferences",
			map[string]interface{}{"preferences": map[string]interface{}{"voice": "calm"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var profile struct {
			Preferences map[string]interface{} `json:"preferences"`
		}
		parseResponse(t, resp, &profile)
		assert.Equal(t, "calm", profile.Preferences["voice"])
		assert.Equal(t, "supportive", profile.Preferences["tone"])
	})

	t.Run("Save Preferences By Username", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/preferences",
			map[string]interface{}{"username": "ada", "preferences": map[string]interface{}{"length": "short"}})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		resp = makeRequest(t, srv, "GET", "/api/users/by-name/ada/preferences", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result struct {
			Username    string                 `json:"username"`
			Preferences map[string]interface{} `json:"preferences"`
		}
		parseResponse(t, resp, &result)
		assert.Equal(t, "ada", result.Username)
		assert.Equal(t, "short", result.Preferences["length"])
	})
}

func TestAPI_InteractionOperations(t *testing.T) {
	srv := newTestServer(t)

	var ts time.Time

	t.Run("Append Interaction", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/interactions", map[string]interface{}{
			"text":       "big presentation tomorrow",
			"emotion":    "anxious",
			"confidence": 0.85,
			"suggestion": "Prepare early and rest",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result struct {
			Timestamp time.Time `json:"timestamp"`
		}
		parseResponse(t, resp, &result)
		require.False(t, result.Timestamp.IsZero())
		ts = result.Timestamp
	})

	t.Run("Attach Feedback", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/interactions/feedback", map[string]interface{}{
			"timestamp": ts,
			"rating":    5,
			"text":      "spot on",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]bool
		parseResponse(t, resp, &result)
		assert.True(t, result["attached"])
	})

	t.Run("Attach Feedback Unknown Timestamp", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/interactions/feedback", map[string]interface{}{
			"timestamp": time.Now().Add(time.Hour),
			"rating":    1,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]bool
		parseResponse(t, resp, &result)
		assert.False(t, result["attached"])
	})

	t.Run("Stats", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/stats", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			TotalInteractions   int     `json:"totalInteractions"`
			MostFrequentEmotion string  `json:"mostFrequentEmotion"`
			AverageFeedback     float64 `json:"averageFeedback"`
		}
		parseResponse(t, resp, &result)
		assert.Equal(t, 1, result.TotalInteractions)
		assert.Equal(t, "anxious", result.MostFrequentEmotion)
		assert.Equal(t, 5.0, result.AverageFeedback)
	})

	t.Run("Append Empty Text Is Stored", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/interactions", map[string]interface{}{"text": ""})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestAPI_EmotionQueries(t *testing.T) {
	srv := newTestServer(t)

	for _, em := range []string{"sad", "happy", "happy"} {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/interactions",
			map[string]interface{}{"text": "msg", "emotion": em, "confidence": 0.5})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	t.Run("Recent", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/emotions/recent?limit=2", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var recs []struct {
			Emotion string `json:"emotion"`
		}
		parseResponse(t, resp, &recs)
		require.Len(t, recs, 2)
		assert.Equal(t, "happy", recs[0].Emotion)
	})

	t.Run("Recent Bad Limit", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/emotions/recent?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()

		resp = makeRequest(t, srv, "GET", "/api/users/u1/emotions/recent?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Trend Defaults To Seven Days", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/emotions/trend", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var trend map[string][]string
		parseResponse(t, resp, &trend)
		assert.Len(t, trend, 7)
		assert.Equal(t, []string{"sad", "happy", "happy"}, trend[time.Now().Format("2006-01-02")])
	})

	t.Run("Trend Bad Days", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/emotions/trend?days=0", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Distribution", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/emotions/distribution", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var dist map[string]int
		parseResponse(t, resp, &dist)
		assert.Equal(t, map[string]int{"sad": 1, "happy": 2}, dist)
	})

	t.Run("Active Days", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/active-days", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var days []string
		parseResponse(t, resp, &days)
		assert.Equal(t, []string{time.Now().Format("2006-01-02")}, days)
	})
}

func TestAPI_ConversationOperations(t *testing.T) {
	srv := newTestServer(t)

	var convID string

	t.Run("Append Message", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/conversations/messages",
			map[string]string{"role": "user", "content": "hello", "emotion": "happy"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result map[string]string
		parseResponse(t, resp, &result)
		convID = result["conversationId"]
		require.NotEmpty(t, convID)
	})

	t.Run("Invalid Role", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/conversations/messages",
			map[string]string{"role": "narrator", "content": "nope"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("History Of Active Conversation", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/conversations/history", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var msgs []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		parseResponse(t, resp, &msgs)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello", msgs[0].Content)
	})

	t.Run("History Of Unknown Conversation Is Empty", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/conversations/history?conversationId=missing", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var msgs []interface{}
		parseResponse(t, resp, &msgs)
		assert.Empty(t, msgs)
	})

	t.Run("Summaries", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/conversations/summaries", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var rows []struct {
			ConversationID string `json:"conversationId"`
			MessageCount   int    `json:"messageCount"`
			IsActive       bool   `json:"isActive"`
		}
		parseResponse(t, resp, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, convID, rows[0].ConversationID)
		assert.Equal(t, 1, rows[0].MessageCount)
		assert.True(t, rows[0].IsActive)
	})

	t.Run("Start New Conversation", func(t *testing.T) {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/conversations/start", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp = makeRequest(t, srv, "POST", "/api/users/u1/conversations/messages",
			map[string]string{"role": "user", "content": "fresh start"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result map[string]string
		parseResponse(t, resp, &result)
		assert.NotEqual(t, convID, result["conversationId"])
	})
}

func TestAPI_SearchOperations(t *testing.T) {
	srv := newTestServer(t)

	for _, text := range []string{
		"nervous about my speech",
		"speech practice tonight",
		"weekend hiking plans",
	} {
		resp := makeRequest(t, srv, "POST", "/api/users/u1/interactions",
			map[string]interface{}{"text": text, "emotion": "anxious", "confidence": 0.5})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	t.Run("Frequent Terms", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/search/terms", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var terms []struct {
			Term  string `json:"term"`
			Count int    `json:"count"`
		}
		parseResponse(t, resp, &terms)
		require.NotEmpty(t, terms)
		assert.Equal(t, "speech", terms[0].Term)
		assert.Equal(t, 2, terms[0].Count)
	})

	t.Run("Keyword Match", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/search?q=speech", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var hits []struct {
			Text string `json:"text"`
		}
		parseResponse(t, resp, &hits)
		require.Len(t, hits, 2)
	})

	t.Run("Relevant Memories Fallback", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/memories?q=nothing-matches&limit=1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var recs []struct {
			Text string `json:"text"`
		}
		parseResponse(t, resp, &recs)
		require.Len(t, recs, 1)
		assert.Equal(t, "weekend hiking plans", recs[0].Text)
	})

	t.Run("Bad Limit", func(t *testing.T) {
		resp := makeRequest(t, srv, "GET", "/api/users/u1/search?q=speech&limit=oops", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestAPI_CORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/users/u1/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestAPI_InvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/users/u1/interactions", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryInt(t *testing.T) {
	mk := func(raw string) *http.Request {
		r, _ := http.NewRequest("GET", fmt.Sprintf("/x?%s", raw), nil)
		return r
	}

	v, ok := queryInt(mk(""), "limit", 7)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = queryInt(mk("limit=12"), "limit", 7)
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = queryInt(mk("limit=twelve"), "limit", 7)
	assert.False(t, ok)
}
