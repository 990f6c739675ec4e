// Package postgres is the durable remote tier of the memory store. Each
// collection is a document table keyed by (user_id, id) with the full entity
// serialized into a JSONB column, mirroring a partitioned document store:
// point reads, partition-scoped queries, idempotent creates, and
// full-document replace.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/solace-labs/solace-memory/internal/model"
	"github.com/solace-labs/solace-memory/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Profiles() store.Profiles           { return &profiles{db: s.db} }
func (s *pgStore) Interactions() store.Interactions   { return &interactions{db: s.db} }
func (s *pgStore) Emotions() store.Emotions           { return &emotions{db: s.db} }
func (s *pgStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *pgStore) Memories() store.Memories           { return &memories{db: s.db} }

// HealthPing reports backend reachability for the health endpoint.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Profiles ---

type profiles struct{ db *sql.DB }

func (p *profiles) Create(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	doc, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	res, err := p.db.ExecContext(ctx, `
        INSERT INTO profiles (user_id, username, doc)
        VALUES ($1, NULLIF($2,''), $3)
        ON CONFLICT DO NOTHING
    `, in.UserID, in.Username, doc)
	if err != nil {
		return nil, err
	}
	// Duplicate create is idempotent: hand back whatever is stored.
	if n, _ := res.RowsAffected(); n == 0 {
		return p.Get(ctx, in.UserID)
	}
	out := *in
	return &out, nil
}

func (p *profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var doc []byte
	row := p.db.QueryRowContext(ctx, `SELECT doc FROM profiles WHERE user_id=$1`, userID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var out model.UserProfile
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *profiles) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	var doc []byte
	row := p.db.QueryRowContext(ctx, `SELECT doc FROM profiles WHERE username=$1`, username)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var out model.UserProfile
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *profiles) Update(ctx context.Context, in *model.UserProfile) (*model.UserProfile, error) {
	doc, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	res, err := p.db.ExecContext(ctx, `
        UPDATE profiles SET username=NULLIF($2,''), doc=$3 WHERE user_id=$1
    `, in.UserID, in.Username, doc)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	out := *in
	return &out, nil
}

// --- Interactions ---

type interactions struct{ db *sql.DB }

func (i *interactions) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	doc, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	_, err = i.db.ExecContext(ctx, `
        INSERT INTO interactions (user_id, id, ts, doc)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, id) DO NOTHING
    `, in.UserID, in.ID, in.Timestamp, doc)
	if err != nil {
		return nil, err
	}
	out := *in
	return &out, nil
}

func (i *interactions) List(ctx context.Context, userID string) ([]*model.Interaction, error) {
	rows, err := i.db.QueryContext(ctx, `
        SELECT doc FROM interactions WHERE user_id=$1 ORDER BY ts ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Interaction
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var in model.Interaction
		if err := json.Unmarshal(doc, &in); err != nil {
			return nil, err
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}

func (i *interactions) AttachFeedback(ctx context.Context, userID string, ts time.Time, fb *model.Feedback) (bool, error) {
	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	var doc []byte
	row := tx.QueryRowContext(ctx, `
        SELECT id, doc FROM interactions WHERE user_id=$1 AND ts=$2
    `, userID, ts)
	if err := row.Scan(&id, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	var in model.Interaction
	if err := json.Unmarshal(doc, &in); err != nil {
		return false, err
	}
	cp := *fb
	in.Feedback = &cp
	updated, err := json.Marshal(&in)
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
        UPDATE interactions SET doc=$3 WHERE user_id=$1 AND id=$2
    `, userID, id, updated); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// --- Emotions ---

type emotions struct{ db *sql.DB }

func (e *emotions) Create(ctx context.Context, rec *model.EmotionRecord) (*model.EmotionRecord, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	_, err = e.db.ExecContext(ctx, `
        INSERT INTO emotion_history (user_id, id, ts, doc)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, id) DO NOTHING
    `, rec.UserID, rec.ID, rec.Timestamp, doc)
	if err != nil {
		return nil, err
	}
	out := *rec
	return &out, nil
}

func (e *emotions) List(ctx context.Context, userID string) ([]*model.EmotionRecord, error) {
	return e.query(ctx, `SELECT doc FROM emotion_history WHERE user_id=$1 ORDER BY ts ASC`, userID)
}

func (e *emotions) ListRecent(ctx context.Context, userID string, limit int) ([]*model.EmotionRecord, error) {
	q := `SELECT doc FROM emotion_history WHERE user_id=$1 ORDER BY ts DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return e.query(ctx, q, userID)
}

func (e *emotions) query(ctx context.Context, q, userID string) ([]*model.EmotionRecord, error) {
	rows, err := e.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.EmotionRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec model.EmotionRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// --- Conversations ---

type conversations struct{ db *sql.DB }

func (c *conversations) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	doc, err := json.Marshal(conv)
	if err != nil {
		return nil, err
	}
	_, err = c.db.ExecContext(ctx, `
        INSERT INTO conversations (user_id, id, active, last_updated, doc)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id, id) DO NOTHING
    `, conv.UserID, conv.ID, conv.Active, conv.LastUpdated, doc)
	if err != nil {
		return nil, err
	}
	out := *conv
	return &out, nil
}

func (c *conversations) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	var doc []byte
	row := c.db.QueryRowContext(ctx, `
        SELECT doc FROM conversations WHERE user_id=$1 AND id=$2
    `, userID, conversationID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var out model.Conversation
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *conversations) Active(ctx context.Context, userID string) (*model.Conversation, error) {
	var doc []byte
	row := c.db.QueryRowContext(ctx, `
        SELECT doc FROM conversations
        WHERE user_id=$1 AND active
        ORDER BY last_updated DESC LIMIT 1
    `, userID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var out model.Conversation
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *conversations) List(ctx context.Context, userID string) ([]*model.Conversation, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT doc FROM conversations WHERE user_id=$1 ORDER BY last_updated DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Conversation
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var conv model.Conversation
		if err := json.Unmarshal(doc, &conv); err != nil {
			return nil, err
		}
		out = append(out, &conv)
	}
	return out, rows.Err()
}

func (c *conversations) Replace(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	doc, err := json.Marshal(conv)
	if err != nil {
		return nil, err
	}
	res, err := c.db.ExecContext(ctx, `
        UPDATE conversations SET active=$3, last_updated=$4, doc=$5
        WHERE user_id=$1 AND id=$2
    `, conv.UserID, conv.ID, conv.Active, conv.LastUpdated, doc)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	out := *conv
	return &out, nil
}

// --- Memories ---

type memories struct{ db *sql.DB }

func (m *memories) Create(ctx context.Context, rec *model.MemoryRecord) (*model.MemoryRecord, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	_, err = m.db.ExecContext(ctx, `
        INSERT INTO memory_records (user_id, id, ts, doc)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, id) DO NOTHING
    `, rec.UserID, rec.ID, rec.Timestamp, doc)
	if err != nil {
		return nil, err
	}
	out := *rec
	return &out, nil
}

func (m *memories) List(ctx context.Context, userID string) ([]*model.MemoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT doc FROM memory_records WHERE user_id=$1 ORDER BY ts ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.MemoryRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec model.MemoryRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
