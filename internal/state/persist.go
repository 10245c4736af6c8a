package state

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// persistence is the SQLite write-through layer for the durable subset of
// the store. Only session identity, theme, and the conversation list are
// written; capability flags and workflow state never touch disk.
type persistence struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

func openDB(path string) (*persistence, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode allows concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &persistence{db: db}, nil
}

func (p *persistence) Close() error {
	return p.db.Close()
}

const (
	keySessionUserID = "session_user_id"
	keySessionEmail  = "session_email"
	keySessionToken  = "session_token"
	keyTheme         = "theme"
)

func (p *persistence) setSetting(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

func (p *persistence) saveSession(sess Session) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := p.setSetting(tx, keySessionUserID, sess.UserID); err != nil {
		return err
	}
	if err := p.setSetting(tx, keySessionEmail, sess.Email); err != nil {
		return err
	}
	if err := p.setSetting(tx, keySessionToken, sess.Token); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *persistence) saveTheme(theme string) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := p.setSetting(tx, keyTheme, theme); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *persistence) loadSettings() (Session, string, error) {
	rows, err := p.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return Session{}, "", fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	var sess Session
	var theme string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, "", fmt.Errorf("failed to scan setting: %w", err)
		}
		switch key {
		case keySessionUserID:
			sess.UserID = value
		case keySessionEmail:
			sess.Email = value
		case keySessionToken:
			sess.Token = value
		case keyTheme:
			theme = value
		}
	}
	if err := rows.Err(); err != nil {
		return Session{}, "", fmt.Errorf("failed to read settings: %w", err)
	}
	return sess, theme, nil
}

func (p *persistence) saveConversation(c Conversation) error {
	_, err := p.db.Exec(
		`INSERT INTO conversations (id, title, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		c.ID, c.Title, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	return nil
}

func (p *persistence) deleteConversation(id string) error {
	if _, err := p.db.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}

func (p *persistence) loadConversations() ([]Conversation, error) {
	rows, err := p.db.Query("SELECT id, title, updated_at FROM conversations")
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	return out, nil
}

func (p *persistence) reset() error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM settings"); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM conversations"); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	return tx.Commit()
}
