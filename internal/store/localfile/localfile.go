// Package localfile is the degraded-mode tier of the memory store: one JSON
// file per logical collection, read fully, mutated in memory, and written
// back whole. File absence means an empty collection.
package localfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
)

const schemaVersion = "2.0"

// Store persists collections under a single data directory. Every operation
// holds the owning collection's lock for the whole read-modify-write cycle,
// which serializes same-user writers within the process. Cross-process
// locking is intentionally not provided.
type Store struct {
	dir string

	profileMu sync.Mutex // profiles.json
	ledgerMu  sync.Mutex // interactions.json (interactions + emotion history)
	convMu    sync.Mutex // conversations.json
	memMu     sync.Mutex // memories.json
}

// New creates a file-backed store rooted at dir, creating dir if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("localfile: data dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localfile: create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Profiles() store.Profiles           { return &profiles{s} }
func (s *Store) Interactions() store.Interactions   { return &interactions{s} }
func (s *Store) Emotions() store.Emotions           { return &emotions{s} }
func (s *Store) Conversations() store.Conversations { return &conversations{s} }
func (s *Store) Memories() store.Memories           { return &memories{s} }

// --- file formats ---

type profileFile struct {
	Version     string                        `json:"version"`
	LastUpdated time.Time                     `json:"lastUpdated"`
	Profiles    map[string]*model.UserProfile `json:"profiles"`
}

type ledgerEntry struct {
	Interactions   []*model.Interaction   `json:"interactions"`
	EmotionHistory []*model.EmotionRecord `json:"emotionHistory"`
}

type ledgerFile struct {
	Version     string                  `json:"version"`
	LastUpdated time.Time               `json:"lastUpdated"`
	Users       map[string]*ledgerEntry `json:"users"`
}

type conversationFile struct {
	Version     string                          `json:"version"`
	LastUpdated time.Time                       `json:"lastUpdated"`
	Users       map[string][]*model.Conversation `json:"users"`
}

type memoryFile struct {
	Version     string                          `json:"version"`
	LastUpdated time.Time                       `json:"lastUpdated"`
	Users       map[string][]*model.MemoryRecord `json:"users"`
}

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// readJSON loads path into v. A missing file leaves v untouched so callers
// start from an empty collection.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("localfile: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("localfile: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path with the encoded value via a temp-file rename so a
// crashed writer never leaves a truncated collection behind.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("localfile: encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("localfile: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("localfile: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) loadProfiles() (*profileFile, error) {
	f := &profileFile{Version: schemaVersion, Profiles: map[string]*model.UserProfile{}}
	if err := readJSON(s.path("profiles.json"), f); err != nil {
		return nil, err
	}
	if f.Profiles == nil {
		f.Profiles = map[string]*model.UserProfile{}
	}
	return f, nil
}

func (s *Store) saveProfiles(f *profileFile) error {
	f.Version = schemaVersion
	f.LastUpdated = time.Now()
	return writeJSON(s.path("profiles.json"), f)
}

func (s *Store) loadLedger() (*ledgerFile, error) {
	f := &ledgerFile{Version: schemaVersion, Users: map[string]*ledgerEntry{}}
	if err := readJSON(s.path("interactions.json"), f); err != nil {
		return nil, err
	}
	if f.Users == nil {
		f.Users = map[string]*ledgerEntry{}
	}
	return f, nil
}

func (s *Store) saveLedger(f *ledgerFile) error {
	f.Version = schemaVersion
	f.LastUpdated = time.Now()
	return writeJSON(s.path("interactions.json"), f)
}

func (f *ledgerFile) entry(userID string) *ledgerEntry {
	e, ok := f.Users[userID]
	if !ok {
		e = &ledgerEntry{}
		f.Users[userID] = e
	}
	return e
}

func (s *Store) loadConversations() (*conversationFile, error) {
	f := &conversationFile{Version: schemaVersion, Users: map[string][]*model.Conversation{}}
	if err := readJSON(s.path("conversations.json"), f); err != nil {
		return nil, err
	}
	if f.Users == nil {
		f.Users = map[string][]*model.Conversation{}
	}
	return f, nil
}

func (s *Store) saveConversations(f *conversationFile) error {
	f.Version = schemaVersion
	f.LastUpdated = time.Now()
	return writeJSON(s.path("conversations.json"), f)
}

func (s *Store) loadMemories() (*memoryFile, error) {
	f := &memoryFile{Version: schemaVersion, Users: map[string][]*model.MemoryRecord{}}
	if err := readJSON(s.path("memories.json"), f); err != nil {
		return nil, err
	}
	if f.Users == nil {
		f.Users = map[string][]*model.MemoryRecord{}
	}
	return f, nil
}

func (s *Store) saveMemories(f *memoryFile) error {
	f.Version = schemaVersion
	f.LastUpdated = time.Now()
	return writeJSON(s.path("memories.json"), f)
}

// --- Profiles ---

type profiles struct{ s *Store }

func (p *profiles) Create(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	p.s.profileMu.Lock()
	defer p.s.profileMu.Unlock()

	f, err := p.s.loadProfiles()
	if err != nil {
		return nil, err
	}
	if existing, ok := f.Profiles[in.UserID]; ok {
		out := *existing
		return &out, nil
	}
	cp := *in
	f.Profiles[in.UserID] = &cp
	if err := p.s.saveProfiles(f); err != nil {
		return nil, err
	}
	out := cp
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	p.s.profileMu.Lock()
	defer p.s.profileMu.Unlock()

	f, err := p.s.loadProfiles()
	if err != nil {
		return nil, err
	}
	existing, ok := f.Profiles[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := *existing
	return &out, nil
}

func (p *profiles) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	p.s.profileMu.Lock()
	defer p.s.profileMu.Unlock()

	f, err := p.s.loadProfiles()
	if err != nil {
		return nil, err
	}
	for _, prof := range f.Profiles {
		if prof.Username == username {
			out := *prof
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (p *profiles) Update(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	p.s.profileMu.Lock()
	defer p.s.profileMu.Unlock()

	f, err := p.s.loadProfiles()
	if err != nil {
		return nil, err
	}
	if _, ok := f.Profiles[in.UserID]; !ok {
		return nil, model.ErrNotFound
	}
	cp := *in
	f.Profiles[in.UserID] = &cp
	if err := p.s.saveProfiles(f); err != nil {
		return nil, err
	}
	out := cp
	return &out, nil
}

// --- Interactions ---

type interactions struct{ s *Store }

func (i *interactions) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	i.s.ledgerMu.Lock()
	defer i.s.ledgerMu.Unlock()

	f, err := i.s.loadLedger()
	if err != nil {
		return nil, err
	}
	cp := *in
	e := f.entry(in.UserID)
	e.Interactions = append(e.Interactions, &cp)
	if err := i.s.saveLedger(f); err != nil {
		return nil, err
	}
	out := cp
	return &out, nil
}

func (i *interactions) List(ctx context.Context, userID string) ([]*model.Interaction, error) {
	i.s.ledgerMu.Lock()
	defer i.s.ledgerMu.Unlock()

	f, err := i.s.loadLedger()
	if err != nil {
		return nil, err
	}
	e, ok := f.Users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]*model.Interaction, 0, len(e.Interactions))
	for _, in := range e.Interactions {
		cp := *in
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.Before(out[b].Timestamp) })
	return out, nil
}

func (i *interactions) AttachFeedback(ctx context.Context, userID string, ts time.Time, fb *model.Feedback) (bool, error) {
	i.s.ledgerMu.Lock()
	defer i.s.ledgerMu.Unlock()

	f, err := i.s.loadLedger()
	if err != nil {
		return false, err
	}
	e, ok := f.Users[userID]
	if !ok {
		return false, nil
	}
	for _, in := range e.Interactions {
		if in.Timestamp.Equal(ts) {
			cp := *fb
			in.Feedback = &cp
			if err := i.s.saveLedger(f); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// --- Emotions ---

type emotions struct{ s *Store }

func (e *emotions) Create(ctx context.Context, rec *model.EmotionRecord) (*model.EmotionRecord, error) {
	e.s.ledgerMu.Lock()
	defer e.s.ledgerMu.Unlock()

	f, err := e.s.loadLedger()
	if err != nil {
		return nil, err
	}
	cp := *rec
	entry := f.entry(rec.UserID)
	entry.EmotionHistory = append(entry.EmotionHistory, &cp)
	if err := e.s.saveLedger(f); err != nil {
		return nil, err
	}
	out := cp
	return &out, nil
}

func (e *emotions) List(ctx context.Context, userID string) ([]*model.EmotionRecord, error) {
	e.s.ledgerMu.Lock()
	defer e.s.ledgerMu.Unlock()

	f, err := e.s.loadLedger()
	if err != nil {
		return nil, err
	}
	entry, ok := f.Users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]*model.EmotionRecord, 0, len(entry.EmotionHistory))
	for _, rec := range entry.EmotionHistory {
		cp := *rec
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.Before(out[b].Timestamp) })
	return out, nil
}

func (e *emotions) ListRecent(ctx context.Context, userID string, limit int) ([]*model.EmotionRecord, error) {
	all, err := e.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].Timestamp.After(all[b].Timestamp) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// --- Conversations ---

type conversations struct{ s *Store }

func cloneConversation(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	cp.Summaries = append([]model.SummaryEntry(nil), c.Summaries...)
	return &cp
}

func (c *conversations) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	c.s.convMu.Lock()
	defer c.s.convMu.Unlock()

	f, err := c.s.loadConversations()
	if err != nil {
		return nil, err
	}
	for _, existing := range f.Users[conv.UserID] {
		if existing.ID == conv.ID {
			return cloneConversation(existing), nil
		}
	}
	f.Users[conv.UserID] = append(f.Users[conv.UserID], cloneConversation(conv))
	if err := c.s.saveConversations(f); err != nil {
		return nil, err
	}
	return cloneConversation(conv), nil
}

func (c *conversations) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	c.s.convMu.Lock()
	defer c.s.convMu.Unlock()

	f, err := c.s.loadConversations()
	if err != nil {
		return nil, err
	}
	for _, conv := range f.Users[userID] {
		if conv.ID == conversationID {
			return cloneConversation(conv), nil
		}
	}
	return nil, model.ErrNotFound
}

func (c *conversations) Active(ctx context.Context, userID string) (*model.Conversation, error) {
	c.s.convMu.Lock()
	defer c.s.convMu.Unlock()

	f, err := c.s.loadConversations()
	if err != nil {
		return nil, err
	}
	var best *model.Conversation
	for _, conv := range f.Users[userID] {
		if !conv.Active {
			continue
		}
		if best == nil || conv.LastUpdated.After(best.LastUpdated) {
			best = conv
		}
	}
	if best == nil {
		return nil, model.ErrNotFound
	}
	return cloneConversation(best), nil
}

func (c *conversations) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	c.s.convMu.Lock()
	defer c.s.convMu.Unlock()

	f, err := c.s.loadConversations()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Conversation, 0, len(f.Users[userID]))
	for _, conv := range f.Users[userID] {
		out = append(out, cloneConversation(conv))
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].LastUpdated.After(out[b].LastUpdated) })
	return out, nil
}

func (c *conversations) Replace(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	c.s.convMu.Lock()
	defer c.s.convMu.Unlock()

	f, err := c.s.loadConversations()
	if err != nil {
		return nil, err
	}
	list := f.Users[conv.UserID]
	for idx, existing := range list {
		if existing.ID == conv.ID {
			list[idx] = cloneConversation(conv)
			if err := c.s.saveConversations(f); err != nil {
				return nil, err
			}
			return cloneConversation(conv), nil
		}
	}
	return nil, model.ErrNotFound
}

// --- Memories ---

type memories struct{ s *Store }

func (m *memories) Create(ctx context.Context, rec *model.MemoryRecord) (*model.MemoryRecord, error) {
	m.s.memMu.Lock()
	defer m.s.memMu.Unlock()

	f, err := m.s.loadMemories()
	if err != nil {
		return nil, err
	}
	cp := *rec
	cp.Keywords = append([]string(nil), rec.Keywords...)
	f.Users[rec.UserID] = append(f.Users[rec.UserID], &cp)
	if err := m.s.saveMemories(f); err != nil {
		return nil, err
	}
	out := cp
	return &out, nil
}

func (m *memories) List(ctx context.Context, userID string) ([]*model.MemoryRecord, error) {
	m.s.memMu.Lock()
	defer m.s.memMu.Unlock()

	f, err := m.s.loadMemories()
	if err != nil {
		return nil, err
	}
	out := make([]*model.MemoryRecord, 0, len(f.Users[userID]))
	for _, rec := range f.Users[userID] {
		cp := *rec
		cp.Keywords = append([]string(nil), rec.Keywords...)
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.Before(out[b].Timestamp) })
	return out, nil
}
