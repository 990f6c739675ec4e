package postgres

import "context"

// Schema statements are idempotent so Bootstrap can run on every start.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
        user_id  TEXT PRIMARY KEY,
        username TEXT UNIQUE,
        doc      JSONB NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS interactions (
        user_id TEXT NOT NULL,
        id      TEXT NOT NULL,
        ts      TIMESTAMPTZ NOT NULL,
        doc     JSONB NOT NULL,
        PRIMARY KEY (user_id, id)
    )`,
	`CREATE INDEX IF NOT EXISTS interactions_user_ts ON interactions (user_id, ts)`,
	`CREATE TABLE IF NOT EXISTS emotion_history (
        user_id TEXT NOT NULL,
        id      TEXT NOT NULL,
        ts      TIMESTAMPTZ NOT NULL,
        doc     JSONB NOT NULL,
        PRIMARY KEY (user_id, id)
    )`,
	`CREATE INDEX IF NOT EXISTS emotion_history_user_ts ON emotion_history (user_id, ts)`,
	`CREATE TABLE IF NOT EXISTS conversations (
        user_id      TEXT NOT NULL,
        id           TEXT NOT NULL,
        active       BOOLEAN NOT NULL DEFAULT FALSE,
        last_updated TIMESTAMPTZ NOT NULL,
        doc          JSONB NOT NULL,
        PRIMARY KEY (user_id, id)
    )`,
	`CREATE INDEX IF NOT EXISTS conversations_user_active ON conversations (user_id, active, last_updated)`,
	`CREATE TABLE IF NOT EXISTS memory_records (
        user_id TEXT NOT NULL,
        id      TEXT NOT NULL,
        ts      TIMESTAMPTZ NOT NULL,
        doc     JSONB NOT NULL,
        PRIMARY KEY (user_id, id)
    )`,
}

// Bootstrap opens the database and applies the schema. A missing DSN is not
// an error; the caller simply runs without a remote tier.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
