package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticketdesk/internal/status"
	"ticketdesk/models"
)

// Lua scripts keep the existence check and the write in a single round trip
// so concurrent history writes against the same ticket cannot be lost.
const createTicketScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1],
  "creator_id", ARGV[1],
  "created_at", ARGV[2],
  "description", ARGV[3],
  "status", ARGV[4])
return 1`

const recordMemberScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[1])
return 1`

const setStatusScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "status", ARGV[1])
return 1`

const deleteTicketScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("DEL", KEYS[1], KEYS[2], KEYS[3])
return 1`

// RedisStore persists tickets as one hash plus two native sets per ticket.
// SADD gives the append-only history sets their atomic set-insert semantics.
type RedisStore struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client, now: time.Now}
}

func ticketKey(channelID string) string  { return fmt.Sprintf("ticket:%s", channelID) }
func addedKey(channelID string) string   { return fmt.Sprintf("ticket:%s:added", channelID) }
func removedKey(channelID string) string { return fmt.Sprintf("ticket:%s:removed", channelID) }

func (s *RedisStore) Create(ctx context.Context, channelID, creatorID, description string) (*models.Ticket, error) {
	createdAt := s.now().UTC()
	created, err := s.redis.Eval(ctx, createTicketScript,
		[]string{ticketKey(channelID)},
		creatorID, createdAt.Format(time.RFC3339Nano), description, string(models.StatusOpen),
	).Int64()
	if err != nil {
		return nil, status.Persistence("create", err)
	}
	if created == 0 {
		return nil, status.Persistence("create", status.ErrDuplicateTicket)
	}

	return &models.Ticket{
		ChannelID:    channelID,
		CreatorID:    creatorID,
		CreatedAt:    createdAt,
		Description:  description,
		Status:       models.StatusOpen,
		UsersAdded:   []string{},
		UsersRemoved: []string{},
	}, nil
}

func (s *RedisStore) FindByChannel(ctx context.Context, channelID string) (*models.Ticket, error) {
	fields, err := s.redis.HGetAll(ctx, ticketKey(channelID)).Result()
	if err != nil {
		return nil, status.Persistence("find", err)
	}
	if len(fields) == 0 {
		return nil, status.ErrTicketNotFound
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, status.Persistence("find", fmt.Errorf("parse created_at: %w", err))
	}

	added, err := s.redis.SMembers(ctx, addedKey(channelID)).Result()
	if err != nil {
		return nil, status.Persistence("find", err)
	}
	removed, err := s.redis.SMembers(ctx, removedKey(channelID)).Result()
	if err != nil {
		return nil, status.Persistence("find", err)
	}

	return &models.Ticket{
		ChannelID:    channelID,
		CreatorID:    fields["creator_id"],
		CreatedAt:    createdAt,
		Description:  fields["description"],
		Status:       models.TicketStatus(fields["status"]),
		UsersAdded:   added,
		UsersRemoved: removed,
	}, nil
}

func (s *RedisStore) RecordAddedUser(ctx context.Context, channelID, subjectID string) error {
	return s.recordMember(ctx, "record_added_user", channelID, addedKey(channelID), subjectID)
}

func (s *RedisStore) RecordRemovedUser(ctx context.Context, channelID, subjectID string) error {
	return s.recordMember(ctx, "record_removed_user", channelID, removedKey(channelID), subjectID)
}

func (s *RedisStore) recordMember(ctx context.Context, op, channelID, setKey, subjectID string) error {
	found, err := s.redis.Eval(ctx, recordMemberScript,
		[]string{ticketKey(channelID), setKey}, subjectID,
	).Int64()
	if err != nil {
		return status.Persistence(op, err)
	}
	if found == 0 {
		return status.ErrTicketNotFound
	}
	return nil
}

func (s *RedisStore) SetStatus(ctx context.Context, channelID string, ticketStatus models.TicketStatus) error {
	found, err := s.redis.Eval(ctx, setStatusScript,
		[]string{ticketKey(channelID)}, string(ticketStatus),
	).Int64()
	if err != nil {
		return status.Persistence("set_status", err)
	}
	if found == 0 {
		return status.ErrTicketNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, channelID string) error {
	found, err := s.redis.Eval(ctx, deleteTicketScript,
		[]string{ticketKey(channelID), addedKey(channelID), removedKey(channelID)},
	).Int64()
	if err != nil {
		return status.Persistence("delete", err)
	}
	if found == 0 {
		return status.ErrTicketNotFound
	}
	return nil
}

func (s *RedisStore) Close() error { return s.redis.Close() }
