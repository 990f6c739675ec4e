package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
)

const (
	defaultRecentLimit = 5
	dateLayout         = "2006-01-02"
)

// emotionCategories marks the labels filed under the "emotion" memory type;
// everything else is "general".
var emotionCategories = map[string]struct{}{
	"happy": {}, "sad": {}, "angry": {}, "anxious": {}, "tired": {},
}

// LedgerService is the append-only interaction log plus the statistics,
// recency, and trend queries derived from it.
type LedgerService struct {
	store store.Store
	log   zerolog.Logger
}

func NewLedgerService(s store.Store, log zerolog.Logger) *LedgerService {
	return &LedgerService{store: s, log: log}
}

// Append records an interaction together with its emotion record and memory
// record, and returns the timestamp used — the interaction's natural key for
// later feedback attachment. A caller-supplied timestamp is used as given
// (modulo the microsecond column precision of the durable tier) to support
// backfill.
func (s *LedgerService) Append(ctx context.Context, userID, text, emotion string, confidence float64, suggestion string, metadata map[string]interface{}, at *time.Time) (time.Time, error) {
	if userID == "" {
		return time.Time{}, fmt.Errorf("%w: userID is required", model.ErrValidation)
	}

	ts := time.Now()
	if at != nil {
		ts = *at
	}
	// timestamptz stores microseconds; truncate up front so the returned key
	// matches what either tier reads back.
	ts = ts.Truncate(time.Microsecond)

	s.touchProfile(ctx, userID, ts)

	interaction := &model.Interaction{
		ID:         uuid.New().String(),
		UserID:     userID,
		Timestamp:  ts,
		Text:       text,
		Emotion:    emotion,
		Confidence: confidence,
		Suggestion: suggestion,
		Metadata:   metadata,
	}
	if _, err := s.store.Interactions().Create(ctx, interaction); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("interaction write failed on all tiers")
	}

	record := &model.EmotionRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		Timestamp:  ts,
		Emotion:    emotion,
		Confidence: confidence,
		Context:    text,
	}
	if _, err := s.store.Emotions().Create(ctx, record); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("emotion record write failed on all tiers")
	}

	memory := &model.MemoryRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		SourceType: "interaction",
		SourceID:   interaction.ID,
		Text:       text,
		Summary:    memorySummary(emotion, text),
		Keywords:   extractKeywords(text),
		MemoryType: memoryType(emotion),
		Timestamp:  ts,
	}
	if _, err := s.store.Memories().Create(ctx, memory); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("memory record write failed on all tiers")
	}

	return ts, nil
}

// touchProfile ensures the profile exists and advances last_active. Best
// effort: the ledger never blocks on profile upkeep.
func (s *LedgerService) touchProfile(ctx context.Context, userID string, ts time.Time) {
	p, err := s.store.Profiles().Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		if _, err := s.store.Profiles().Create(ctx, newProfile(userID, "", ts)); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("implicit profile create failed")
		}
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile touch skipped")
		return
	}
	if ts.After(p.LastActive) {
		p.LastActive = ts
		if _, err := s.store.Profiles().Update(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("last_active update failed")
		}
	}
}

// AttachFeedback attaches a rating to the interaction with exactly the given
// timestamp. It reports false for an unknown user or timestamp, and also on
// storage failure — the boolean is the whole contract.
func (s *LedgerService) AttachFeedback(ctx context.Context, userID string, ts time.Time, rating int, text string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("%w: userID is required", model.ErrValidation)
	}
	fb := &model.Feedback{Rating: rating, Text: text, Timestamp: time.Now()}
	ok, err := s.store.Interactions().AttachFeedback(ctx, userID, ts.Truncate(time.Microsecond), fb)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("feedback attach failed on all tiers")
		return false, nil
	}
	return ok, nil
}

// Stats recomputes the derived statistics from the ledger. The most frequent
// emotion resolves ties to the first label that reached the top count in
// append order.
func (s *LedgerService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", model.ErrValidation)
	}
	list, err := s.store.Interactions().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("interaction list failed on all tiers")
		return &model.UserStats{}, nil
	}

	stats := &model.UserStats{TotalInteractions: len(list)}

	counts := map[string]int{}
	best := 0
	for _, in := range list {
		counts[in.Emotion]++
		if counts[in.Emotion] > best {
			best = counts[in.Emotion]
			stats.MostFrequentEmotion = in.Emotion
		}
	}

	var sum, n int
	for _, in := range list {
		if in.Feedback != nil {
			sum += in.Feedback.Rating
			n++
		}
	}
	if n > 0 {
		stats.AverageFeedback = float64(sum) / float64(n)
	}
	return stats, nil
}

// RecentEmotions returns up to limit emotion records, most recent first.
func (s *LedgerService) RecentEmotions(ctx context.Context, userID string, limit int) ([]*model.EmotionRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", model.ErrValidation)
	}
	if limit == 0 {
		limit = defaultRecentLimit
	}
	recs, err := s.store.Emotions().ListRecent(ctx, userID, limit)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("recent emotions failed on all tiers")
		return []*model.EmotionRecord{}, nil
	}
	if recs == nil {
		recs = []*model.EmotionRecord{}
	}
	return recs, nil
}

// Trend buckets emotion labels by local calendar date over the trailing days
// window, today included. Every date in the window is present in the result,
// with an empty list when nothing was recorded.
func (s *LedgerService) Trend(ctx context.Context, userID string, days int) (map[string][]string, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", model.ErrValidation)
	}

	result := make(map[string][]string, days)
	today := time.Now()
	for i := 0; i < days; i++ {
		result[today.AddDate(0, 0, -i).Format(dateLayout)] = []string{}
	}

	recs, err := s.store.Emotions().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("emotion list failed on all tiers")
		return result, nil
	}
	for _, rec := range recs {
		if rec.Timestamp.IsZero() {
			continue
		}
		date := rec.Timestamp.Format(dateLayout)
		if _, ok := result[date]; ok {
			result[date] = append(result[date], rec.Emotion)
		}
	}
	return result, nil
}

// Distribution counts interactions per emotion label.
func (s *LedgerService) Distribution(ctx context.Context, userID string) (map[string]int, error) {
	list, err := s.store.Interactions().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("interaction list failed on all tiers")
		return map[string]int{}, nil
	}
	dist := map[string]int{}
	for _, in := range list {
		dist[in.Emotion]++
	}
	return dist, nil
}

// ActiveDays returns the distinct calendar dates with at least one
// interaction, ascending.
func (s *LedgerService) ActiveDays(ctx context.Context, userID string) ([]string, error) {
	list, err := s.store.Interactions().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("interaction list failed on all tiers")
		return []string{}, nil
	}
	seen := map[string]struct{}{}
	for _, in := range list {
		if in.Timestamp.IsZero() {
			continue
		}
		seen[in.Timestamp.Format(dateLayout)] = struct{}{}
	}
	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, nil
}

func memorySummary(emotion, text string) string {
	r := []rune(text)
	if len(r) > 50 {
		text = string(r[:50]) + "..."
	}
	if emotion == "" {
		return text
	}
	return fmt.Sprintf("User expressed %s: %s", emotion, text)
}

func memoryType(emotion string) string {
	if _, ok := emotionCategories[emotion]; ok {
		return "emotion"
	}
	return "general"
}
