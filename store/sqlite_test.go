package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdesk/internal/status"
	"ticketdesk/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tickets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "chan-1", "user-1", "laptop will not boot")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, created.Status)

	require.NoError(t, s.RecordAddedUser(ctx, "chan-1", "user-2"))
	require.NoError(t, s.RecordAddedUser(ctx, "chan-1", "user-2"))
	require.NoError(t, s.RecordRemovedUser(ctx, "chan-1", "user-3"))
	require.NoError(t, s.SetStatus(ctx, "chan-1", models.StatusArchived))

	found, err := s.FindByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.CreatorID)
	assert.Equal(t, "laptop will not boot", found.Description)
	assert.Equal(t, models.StatusArchived, found.Status)
	assert.Equal(t, []string{"user-2"}, found.UsersAdded)
	assert.Equal(t, []string{"user-3"}, found.UsersRemoved)
	assert.True(t, found.CreatedAt.Equal(created.CreatedAt))
}

func TestSQLiteStore_DuplicateCreate(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)
	_, err = s.Create(ctx, "chan-1", "user-2", "")
	assert.ErrorIs(t, err, status.ErrDuplicateTicket)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.FindByChannel(ctx, "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
	assert.ErrorIs(t, s.RecordAddedUser(ctx, "missing", "user-2"), status.ErrTicketNotFound)
	assert.ErrorIs(t, s.SetStatus(ctx, "missing", models.StatusArchived), status.ErrTicketNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), status.ErrTicketNotFound)
}

func TestSQLiteStore_DeleteIsAtomic(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)
	require.NoError(t, s.RecordAddedUser(ctx, "chan-1", "user-2"))

	// Make the tickets statement fail after the members statement has run.
	_, err = s.db.NewQuery("ALTER TABLE tickets RENAME TO tickets_unreachable").Execute()
	require.NoError(t, err)

	require.Error(t, s.Delete(ctx, "chan-1"))

	// The failed delete rolled back: the history rows are still there.
	var subjects []string
	require.NoError(t, s.db.Select("subject_id").
		From("ticket_members").
		Where(dbx.HashExp{"channel_id": "chan-1"}).
		Column(&subjects))
	assert.Equal(t, []string{"user-2"}, subjects)
}

func TestSQLiteStore_DeleteRemovesHistory(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)
	require.NoError(t, s.RecordAddedUser(ctx, "chan-1", "user-2"))
	require.NoError(t, s.Delete(ctx, "chan-1"))

	_, err = s.FindByChannel(ctx, "chan-1")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	// A new ticket on the same channel id starts with clean history.
	_, err = s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)
	found, err := s.FindByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Empty(t, found.UsersAdded)
}
