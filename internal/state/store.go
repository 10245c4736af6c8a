// Package state holds the client-side application state: the signed-in
// session, UI preferences, capability flags reported by the backend, and the
// conversation list. A small durable subset (session identity, theme,
// conversations) survives restarts in a local SQLite database; everything
// else is re-derived from the backend on startup.
package state

import (
	"fmt"
	"sort"
	"sync"
)

// Session identifies the signed-in user on this machine.
type Session struct {
	UserID string
	Email  string
	Token  string
}

// Active reports whether a user is signed in.
func (s Session) Active() bool {
	return s.Token != ""
}

// Conversation is one entry in the assistant conversation list.
type Conversation struct {
	ID        string
	Title     string
	UpdatedAt string
}

// Store is the typed application state. All accessors are safe for
// concurrent use. Mutations to the durable subset are written through to
// SQLite before the in-memory copy changes, so a write failure never leaves
// memory and disk disagreeing.
type Store struct {
	mu sync.RWMutex
	db *persistence

	session         Session
	theme           string
	gmailAvailable  bool
	resumeUploaded  bool
	profileComplete bool
	conversations   map[string]Conversation
}

// Open loads the store backed by a SQLite database at path. The database is
// created on first use.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:            db,
		theme:         defaultTheme,
		conversations: make(map[string]Conversation),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load persisted state: %w", err)
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session returns the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetSession records a new signed-in session. Any state belonging to the
// previous user is discarded first.
func (s *Store) SetSession(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.UserID != "" && s.session.UserID != sess.UserID {
		if err := s.resetLocked(); err != nil {
			return err
		}
	}
	if err := s.db.saveSession(sess); err != nil {
		return err
	}
	s.session = sess
	return nil
}

// Theme returns the active UI theme name.
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme records the UI theme preference.
func (s *Store) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if theme == "" {
		theme = defaultTheme
	}
	if err := s.db.saveTheme(theme); err != nil {
		return err
	}
	s.theme = theme
	return nil
}

// GmailAvailable reports whether the backend advertises Gmail integration.
// Not persisted; refreshed from the backend each session.
func (s *Store) GmailAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gmailAvailable
}

// SetGmailAvailable records the backend's Gmail availability flag.
func (s *Store) SetGmailAvailable(v bool) {
	s.mu.Lock()
	s.gmailAvailable = v
	s.mu.Unlock()
}

// ResumeUploaded reports whether the user has résumé content on file.
// Not persisted; refreshed from candidate data.
func (s *Store) ResumeUploaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resumeUploaded
}

// SetResumeUploaded records whether résumé content exists.
func (s *Store) SetResumeUploaded(v bool) {
	s.mu.Lock()
	s.resumeUploaded = v
	s.mu.Unlock()
}

// ProfileComplete reports whether the candidate profile has the fields the
// campaign workflow needs. Not persisted.
func (s *Store) ProfileComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileComplete
}

// SetProfileComplete records the profile completeness flag.
func (s *Store) SetProfileComplete(v bool) {
	s.mu.Lock()
	s.profileComplete = v
	s.mu.Unlock()
}

// Conversations returns the conversation list, most recently updated first.
func (s *Store) Conversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpsertConversation inserts or updates one conversation entry.
func (s *Store) UpsertConversation(c Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("conversation id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.saveConversation(c); err != nil {
		return err
	}
	s.conversations[c.ID] = c
	return nil
}

// RemoveConversation deletes one conversation entry. Removing an unknown id
// is not an error.
func (s *Store) RemoveConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.deleteConversation(id); err != nil {
		return err
	}
	delete(s.conversations, id)
	return nil
}

// Reset clears all state, durable and in-memory. Called on logout and when a
// different user signs in.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

func (s *Store) resetLocked() error {
	if err := s.db.reset(); err != nil {
		return err
	}
	s.session = Session{}
	s.theme = defaultTheme
	s.gmailAvailable = false
	s.resumeUploaded = false
	s.profileComplete = false
	s.conversations = make(map[string]Conversation)
	return nil
}

func (s *Store) load() error {
	sess, theme, err := s.db.loadSettings()
	if err != nil {
		return err
	}
	s.session = sess
	if theme != "" {
		s.theme = theme
	}

	convs, err := s.db.loadConversations()
	if err != nil {
		return err
	}
	for _, c := range convs {
		s.conversations[c.ID] = c
	}
	return nil
}

const defaultTheme = "system"
