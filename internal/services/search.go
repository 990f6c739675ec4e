package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
)

const (
	defaultTermLimit  = 10
	defaultMatchLimit = 3
	maxKeywords       = 10
)

// stopWords filters common English tokens out of frequency counts.
var stopWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "myself": {}, "we": {}, "our": {}, "ours": {},
	"ourselves": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},
	"yourselves": {}, "he": {}, "him": {}, "his": {}, "himself": {}, "she": {},
	"her": {}, "hers": {}, "herself": {}, "it": {}, "its": {}, "itself": {},
	"they": {}, "them": {}, "their": {}, "theirs": {}, "themselves": {},
	"what": {}, "which": {}, "who": {}, "whom": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "am": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "having": {}, "do": {}, "does": {}, "did": {}, "doing": {},
	"a": {}, "an": {}, "the": {}, "and": {}, "but": {}, "if": {}, "or": {},
	"because": {}, "as": {}, "until": {}, "while": {}, "of": {}, "at": {},
	"by": {}, "for": {}, "with": {}, "about": {}, "against": {}, "between": {},
	"into": {}, "through": {}, "during": {}, "before": {}, "after": {},
	"above": {}, "below": {}, "to": {}, "from": {}, "up": {}, "down": {},
	"in": {}, "out": {}, "on": {}, "off": {}, "over": {}, "under": {},
	"again": {}, "further": {}, "then": {}, "once": {},
}

// SearchService is the naive keyword relevance layer: deterministic term
// frequency and substring scoring, deliberately not semantic.
type SearchService struct {
	store store.Store
	log   zerolog.Logger
}

func NewSearchService(s store.Store, log zerolog.Logger) *SearchService {
	return &SearchService{store: s, log: log}
}

// tokenize lower-cases and splits on whitespace, dropping stop words and
// tokens of length <= 2. Used for frequency counting.
func tokenize(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// queryTokens is the scoring-side tokenizer: lower-cased whitespace split
// with no filtering, so short queries still match.
func queryTokens(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// extractKeywords builds the ingest-side keyword snapshot stored on memory
// records: longer tokens only, capped at maxKeywords.
func extractKeywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// FrequentTerms counts tokens across all of the user's interaction text and
// returns the top limit terms by frequency, ties resolved in first-seen
// order.
func (s *SearchService) FrequentTerms(ctx context.Context, userID string, limit int) ([]model.TermCount, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", model.ErrValidation)
	}
	if limit == 0 {
		limit = defaultTermLimit
	}

	list, err := s.store.Interactions().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("interaction list failed on all tiers")
		return []model.TermCount{}, nil
	}

	counts := map[string]int{}
	var order []string
	for _, in := range list {
		for _, term := range tokenize(in.Text) {
			if _, seen := counts[term]; !seen {
				order = append(order, term)
			}
			counts[term]++
		}
	}

	out := make([]model.TermCount, 0, len(order))
	for _, term := range order {
		out = append(out, model.TermCount{Term: term, Count: counts[term]})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// KeywordMatch scores each interaction by the number of query tokens present
// in its text (substring match on the lower-cased text). Zero-score
// candidates are excluded; ties sort most recent first.
func (s *SearchService) KeywordMatch(ctx context.Context, userID, query string, limit int) ([]*model.Interaction, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", model.ErrValidation)
	}
	if limit == 0 {
		limit = defaultMatchLimit
	}

	terms := queryTokens(query)
	if len(terms) == 0 {
		return []*model.Interaction{}, nil
	}

	list, err := s.store.Interactions().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("interaction list failed on all tiers")
		return []*model.Interaction{}, nil
	}

	type scored struct {
		score int
		in    *model.Interaction
	}
	var matches []scored
	for _, in := range list {
		text := strings.ToLower(in.Text)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{score: score, in: in})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		return matches[a].in.Timestamp.After(matches[b].in.Timestamp)
	})

	out := make([]*model.Interaction, 0, limit)
	for _, m := range matches {
		out = append(out, m.in)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// RelevantMemories retrieves memory records matching the query by keyword or
// substring. When nothing matches, the most recent records are returned so
// the agent always has some context to work with.
func (s *SearchService) RelevantMemories(ctx context.Context, userID, query string, limit int) ([]*model.MemoryRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", model.ErrValidation)
	}
	if limit == 0 {
		limit = defaultMatchLimit
	}

	recs, err := s.store.Memories().List(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("memory list failed on all tiers")
		return []*model.MemoryRecord{}, nil
	}

	terms := queryTokens(query)
	type scored struct {
		score int
		rec   *model.MemoryRecord
	}
	var matches []scored
	for _, rec := range recs {
		text := strings.ToLower(rec.Text + " " + rec.Summary)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
				continue
			}
			for _, kw := range rec.Keywords {
				if kw == term {
					score++
					break
				}
			}
		}
		if score > 0 {
			matches = append(matches, scored{score: score, rec: rec})
		}
	}

	if len(matches) == 0 {
		// Recency fallback, newest first.
		out := make([]*model.MemoryRecord, 0, limit)
		for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, recs[i])
		}
		return out, nil
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		return matches[a].rec.Timestamp.After(matches[b].rec.Timestamp)
	})
	out := make([]*model.MemoryRecord, 0, limit)
	for _, m := range matches {
		out = append(out, m.rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
