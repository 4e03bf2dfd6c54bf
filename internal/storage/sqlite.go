package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ghost/internal/llm"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chats (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE,
	saved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	seq     INTEGER NOT NULL,
	sender  TEXT NOT NULL,
	content TEXT NOT NULL,
	ts      INTEGER NOT NULL,
	PRIMARY KEY (chat_id, seq)
);`

// SQLiteStore keeps chats in a single SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) dir/chats.db.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create chats directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "chats.db")+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save replaces the chat's messages in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, name string, msgs []llm.Message) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM chats WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `INSERT INTO chats (id, name, saved_at) VALUES (?, ?, ?)`,
			id, name, s.now().UnixNano()); err != nil {
			return fmt.Errorf("failed to insert chat: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up chat: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `UPDATE chats SET saved_at = ? WHERE id = ?`, s.now().UnixNano(), id); err != nil {
			return fmt.Errorf("failed to update chat: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO messages (chat_id, seq, sender, content, ts) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range msgs {
		if _, err := stmt.ExecContext(ctx, id, i, string(m.Sender), m.Content, m.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Load returns the saved transcript in order.
func (s *SQLiteStore) Load(ctx context.Context, name string) ([]llm.Message, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM chats WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT sender, content, ts FROM messages WHERE chat_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	msgs := []llm.Message{}
	for rows.Next() {
		var (
			sender, content string
			ts              int64
		)
		if err := rows.Scan(&sender, &content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, llm.Message{Sender: llm.Sender(sender), Content: content, Timestamp: time.Unix(0, ts).UTC()})
	}
	return msgs, rows.Err()
}

// List returns saved chats, most recently saved first.
func (s *SQLiteStore) List(ctx context.Context) ([]ChatInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.saved_at, COUNT(m.seq)
		FROM chats c LEFT JOIN messages m ON m.chat_id = c.id
		GROUP BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []ChatInfo
	for rows.Next() {
		var (
			info    ChatInfo
			savedAt int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &savedAt, &info.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		info.SavedAt = time.Unix(0, savedAt).UTC()
		chats = append(chats, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortChats(chats)
	return chats, nil
}

// Delete removes a chat and its messages.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, name)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
