package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdesk/internal/status"
	"ticketdesk/models"
)

func TestMemoryStore_CreateAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Create(ctx, "chan-1", "user-1", "printer on fire")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, created.Status)
	assert.Empty(t, created.UsersAdded)
	assert.Empty(t, created.UsersRemoved)

	found, err := s.FindByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.CreatorID)
	assert.Equal(t, "printer on fire", found.Description)
}

func TestMemoryStore_DuplicateCreate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)
	_, err = s.Create(ctx, "chan-1", "user-2", "")
	assert.ErrorIs(t, err, status.ErrDuplicateTicket)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.FindByChannel(ctx, "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
	assert.ErrorIs(t, s.RecordAddedUser(ctx, "missing", "user-2"), status.ErrTicketNotFound)
	assert.ErrorIs(t, s.RecordRemovedUser(ctx, "missing", "user-2"), status.ErrTicketNotFound)
	assert.ErrorIs(t, s.SetStatus(ctx, "missing", models.StatusArchived), status.ErrTicketNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), status.ErrTicketNotFound)
}

func TestMemoryStore_HistorySetsDeduplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)

	require.NoError(t, s.RecordAddedUser(ctx, "chan-1", "user-2"))
	require.NoError(t, s.RecordAddedUser(ctx, "chan-1", "user-2"))
	require.NoError(t, s.RecordRemovedUser(ctx, "chan-1", "user-2"))

	ticket, err := s.FindByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-2"}, ticket.UsersAdded)
	assert.Equal(t, []string{"user-2"}, ticket.UsersRemoved)
}

func TestMemoryStore_SetStatusAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, "chan-1", models.StatusArchived))
	ticket, err := s.FindByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, ticket.Status)

	require.NoError(t, s.Delete(ctx, "chan-1"))
	_, err = s.FindByChannel(ctx, "chan-1")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestMemoryStore_ConcurrentHistoryWrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "chan-1", "user-1", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.RecordAddedUser(ctx, "chan-1", fmt.Sprintf("user-%d", i)))
		}(i)
	}
	wg.Wait()

	ticket, err := s.FindByChannel(ctx, "chan-1")
	require.NoError(t, err)
	assert.Len(t, ticket.UsersAdded, 20)
}
