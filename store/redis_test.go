package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdesk/internal/status"
	"ticketdesk/models"
)

func newMockedRedisStore(t *testing.T) (*RedisStore, redismock.ClientMock, time.Time) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s, mock, fixed
}

func TestRedisStore_Create(t *testing.T) {
	s, mock, fixed := newMockedRedisStore(t)

	mock.ExpectEval(createTicketScript,
		[]string{"ticket:chan-1"},
		"user-1", fixed.Format(time.RFC3339Nano), "need help", string(models.StatusOpen),
	).SetVal(int64(1))

	ticket, err := s.Create(context.Background(), "chan-1", "user-1", "need help")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, ticket.Status)
	assert.Equal(t, fixed, ticket.CreatedAt)
	assert.Empty(t, ticket.UsersAdded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CreateDuplicate(t *testing.T) {
	s, mock, fixed := newMockedRedisStore(t)

	mock.ExpectEval(createTicketScript,
		[]string{"ticket:chan-1"},
		"user-1", fixed.Format(time.RFC3339Nano), "", string(models.StatusOpen),
	).SetVal(int64(0))

	_, err := s.Create(context.Background(), "chan-1", "user-1", "")
	assert.ErrorIs(t, err, status.ErrDuplicateTicket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FindByChannel(t *testing.T) {
	s, mock, fixed := newMockedRedisStore(t)

	mock.ExpectHGetAll("ticket:chan-1").SetVal(map[string]string{
		"creator_id":  "user-1",
		"created_at":  fixed.Format(time.RFC3339Nano),
		"description": "need help",
		"status":      string(models.StatusArchived),
	})
	mock.ExpectSMembers("ticket:chan-1:added").SetVal([]string{"user-2"})
	mock.ExpectSMembers("ticket:chan-1:removed").SetVal([]string{})

	ticket, err := s.FindByChannel(context.Background(), "chan-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", ticket.CreatorID)
	assert.Equal(t, models.StatusArchived, ticket.Status)
	assert.Equal(t, []string{"user-2"}, ticket.UsersAdded)
	assert.Empty(t, ticket.UsersRemoved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FindByChannelNotFound(t *testing.T) {
	s, mock, _ := newMockedRedisStore(t)

	mock.ExpectHGetAll("ticket:missing").SetVal(map[string]string{})

	_, err := s.FindByChannel(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_RecordAddedUser(t *testing.T) {
	s, mock, _ := newMockedRedisStore(t)

	mock.ExpectEval(recordMemberScript,
		[]string{"ticket:chan-1", "ticket:chan-1:added"}, "user-2",
	).SetVal(int64(1))

	assert.NoError(t, s.RecordAddedUser(context.Background(), "chan-1", "user-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_RecordRemovedUserUnknownTicket(t *testing.T) {
	s, mock, _ := newMockedRedisStore(t)

	mock.ExpectEval(recordMemberScript,
		[]string{"ticket:missing", "ticket:missing:removed"}, "user-2",
	).SetVal(int64(0))

	err := s.RecordRemovedUser(context.Background(), "missing", "user-2")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetStatus(t *testing.T) {
	s, mock, _ := newMockedRedisStore(t)

	mock.ExpectEval(setStatusScript,
		[]string{"ticket:chan-1"}, string(models.StatusArchived),
	).SetVal(int64(1))

	assert.NoError(t, s.SetStatus(context.Background(), "chan-1", models.StatusArchived))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Delete(t *testing.T) {
	s, mock, _ := newMockedRedisStore(t)

	mock.ExpectEval(deleteTicketScript,
		[]string{"ticket:chan-1", "ticket:chan-1:added", "ticket:chan-1:removed"},
	).SetVal(int64(1))

	assert.NoError(t, s.Delete(context.Background(), "chan-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_DeleteUnknownTicket(t *testing.T) {
	s, mock, _ := newMockedRedisStore(t)

	mock.ExpectEval(deleteTicketScript,
		[]string{"ticket:missing", "ticket:missing:added", "ticket:missing:removed"},
	).SetVal(int64(0))

	err := s.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
