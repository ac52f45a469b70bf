// Package postgres provides a PostgreSQL-backed implementation of the
// store.Store interface.
//
// Sessions and messages live in two tables sharing a single [pgxpool.Pool].
// [Migrate] runs automatically on NewStore and is idempotent.
//
// Usage:
//
//	st, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer st.Close()
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linguafluent/linguafluent/internal/conversation"
	"github.com/linguafluent/linguafluent/internal/store"
)

const ddlSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT         PRIMARY KEY,
    user_id         TEXT         NOT NULL,
    title           TEXT         NOT NULL DEFAULT '',
    source_language TEXT         NOT NULL,
    target_language TEXT         NOT NULL,
    started_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id
    ON sessions (user_id, started_at DESC);
`

const ddlMessages = `
CREATE TABLE IF NOT EXISTS messages (
    id              TEXT         PRIMARY KEY,
    session_id      TEXT         NOT NULL,
    seq             INT          NOT NULL,
    speaker         TEXT         NOT NULL,
    original_text   TEXT         NOT NULL,
    translated_text TEXT         NOT NULL DEFAULT '',
    confidence      INT          NOT NULL DEFAULT 0,
    source_language TEXT         NOT NULL,
    target_language TEXT         NOT NULL,
    timestamp       TIMESTAMPTZ  NOT NULL DEFAULT now(),
    UNIQUE (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_messages_session_seq
    ON messages (session_id, seq);

CREATE INDEX IF NOT EXISTS idx_messages_timestamp
    ON messages (timestamp);
`

// Migrate ensures all required tables and indexes exist. Safe to run on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlSessions, ddlMessages} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres store: migrate: %w", err)
		}
	}
	return nil
}

// Store implements store.Store backed by PostgreSQL.
//
// All operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// CreateSession implements store.Store.
func (s *Store) CreateSession(ctx context.Context, h store.SessionHeader) error {
	const q = `
		INSERT INTO sessions
		    (id, user_id, title, source_language, target_language, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q,
		h.ID,
		h.UserID,
		h.Title,
		h.SourceLanguage,
		h.TargetLanguage,
		h.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres store: create session: %w", err)
	}
	return nil
}

// AppendMessage implements store.Store.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, m conversation.Message) error {
	const q = `
		INSERT INTO messages
		    (id, session_id, seq, speaker, original_text, translated_text,
		     confidence, source_language, target_language, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, q,
		m.ID,
		sessionID,
		m.Seq,
		string(m.Speaker),
		m.OriginalText,
		m.TranslatedText,
		m.Confidence,
		m.SourceLanguage,
		m.TargetLanguage,
		m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres store: append message: %w", err)
	}
	return nil
}

// ListSessions implements store.Store. Results are ordered newest first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]store.SessionHeader, error) {
	const q = `
		SELECT id, user_id, title, source_language, target_language, started_at
		FROM   sessions
		WHERE  user_id = $1
		ORDER  BY started_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list sessions: %w", err)
	}

	headers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SessionHeader, error) {
		var h store.SessionHeader
		err := row.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.SourceLanguage,
			&h.TargetLanguage,
			&h.StartedAt,
		)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan sessions: %w", err)
	}
	if headers == nil {
		headers = []store.SessionHeader{}
	}
	return headers, nil
}

// ListMessages implements store.Store. Results are ordered by ledger
// sequence, matching the in-memory conversation order.
func (s *Store) ListMessages(ctx context.Context, f store.Filter) ([]conversation.Message, error) {
	if f.SessionID == "" {
		return nil, fmt.Errorf("postgres store: list messages: SessionID is required")
	}

	q, args := buildMessagesQuery(f)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list messages: %w", err)
	}
	return collectMessages(rows)
}

// buildMessagesQuery assembles the ListMessages SQL and its positional args
// from the filter.
func buildMessagesQuery(f store.Filter) (string, []any) {
	args := []any{f.SessionID} // $1 = session ID
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"session_id = $1"}
	if f.Speaker != "" {
		conditions = append(conditions, "speaker = "+next(string(f.Speaker)))
	}
	if !f.After.IsZero() {
		conditions = append(conditions, "timestamp > "+next(f.After))
	}
	if !f.Before.IsZero() {
		conditions = append(conditions, "timestamp < "+next(f.Before))
	}

	q := "SELECT id, seq, speaker, original_text, translated_text, confidence,\n" +
		"       source_language, target_language, timestamp\n" +
		"FROM   messages\n" +
		"WHERE  " + strings.Join(conditions, "\n  AND  ") + "\n" +
		"ORDER  BY seq"

	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	return q, args
}

// collectMessages scans pgx rows into a slice of Message values.
func collectMessages(rows pgx.Rows) ([]conversation.Message, error) {
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (conversation.Message, error) {
		var (
			m       conversation.Message
			speaker string
		)
		if err := row.Scan(
			&m.ID,
			&m.Seq,
			&speaker,
			&m.OriginalText,
			&m.TranslatedText,
			&m.Confidence,
			&m.SourceLanguage,
			&m.TargetLanguage,
			&m.Timestamp,
		); err != nil {
			return conversation.Message{}, err
		}
		m.Speaker = conversation.Speaker(speaker)
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan messages: %w", err)
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	return msgs, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres store: ping: %w", err)
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() {
	s.pool.Close()
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)
