package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStore_Defaults(t *testing.T) {
	s, _ := openTestStore(t)

	assert.False(t, s.Session().Active())
	assert.Equal(t, "system", s.Theme())
	assert.False(t, s.GmailAvailable())
	assert.False(t, s.ResumeUploaded())
	assert.Empty(t, s.Conversations())
}

func TestStore_SessionSurvivesReopen(t *testing.T) {
	s, path := openTestStore(t)

	sess := Session{UserID: "u-1", Email: "dana@example.com", Token: "tok-abc"}
	require.NoError(t, s.SetSession(sess))
	require.NoError(t, s.SetTheme("dark"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, sess, reopened.Session())
	assert.Equal(t, "dark", reopened.Theme())
}

func TestStore_FlagsAreNotPersisted(t *testing.T) {
	s, path := openTestStore(t)

	s.SetGmailAvailable(true)
	s.SetResumeUploaded(true)
	s.SetProfileComplete(true)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.False(t, reopened.GmailAvailable())
	assert.False(t, reopened.ResumeUploaded())
	assert.False(t, reopened.ProfileComplete())
}

func TestStore_ConversationsOrderedByRecency(t *testing.T) {
	s, _ := openTestStore(t)

	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-1", Title: "Acme outreach", UpdatedAt: "2026-08-01T10:00:00Z"}))
	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-2", Title: "Globex follow-up", UpdatedAt: "2026-08-20T10:00:00Z"}))

	convs := s.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "c-2", convs[0].ID)
	assert.Equal(t, "c-1", convs[1].ID)
}

func TestStore_UpsertConversation_UpdatesExisting(t *testing.T) {
	s, path := openTestStore(t)

	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-1", Title: "Draft", UpdatedAt: "2026-08-01T10:00:00Z"}))
	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-1", Title: "Acme outreach", UpdatedAt: "2026-08-02T10:00:00Z"}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	convs := reopened.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "Acme outreach", convs[0].Title)
}

func TestStore_UpsertConversation_RequiresID(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Error(t, s.UpsertConversation(Conversation{Title: "nameless"}))
}

func TestStore_RemoveConversation(t *testing.T) {
	s, _ := openTestStore(t)

	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-1", Title: "Acme", UpdatedAt: "2026-08-01T10:00:00Z"}))
	require.NoError(t, s.RemoveConversation("c-1"))
	require.NoError(t, s.RemoveConversation("c-missing"))
	assert.Empty(t, s.Conversations())
}

func TestStore_ResetClearsEverything(t *testing.T) {
	s, path := openTestStore(t)

	require.NoError(t, s.SetSession(Session{UserID: "u-1", Token: "tok"}))
	require.NoError(t, s.SetTheme("dark"))
	s.SetGmailAvailable(true)
	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-1", Title: "Acme", UpdatedAt: "2026-08-01T10:00:00Z"}))

	require.NoError(t, s.Reset())

	assert.False(t, s.Session().Active())
	assert.Equal(t, "system", s.Theme())
	assert.False(t, s.GmailAvailable())
	assert.Empty(t, s.Conversations())
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.False(t, reopened.Session().Active())
	assert.Empty(t, reopened.Conversations())
}

func TestStore_NewUserDiscardsPreviousState(t *testing.T) {
	s, _ := openTestStore(t)

	require.NoError(t, s.SetSession(Session{UserID: "u-1", Token: "tok-1"}))
	require.NoError(t, s.UpsertConversation(Conversation{ID: "c-1", Title: "Acme", UpdatedAt: "2026-08-01T10:00:00Z"}))

	require.NoError(t, s.SetSession(Session{UserID: "u-2", Token: "tok-2"}))

	assert.Equal(t, "u-2", s.Session().UserID)
	assert.Empty(t, s.Conversations())
}
