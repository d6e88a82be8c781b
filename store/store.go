package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ticketdesk/config"
	"ticketdesk/models"
)

// Backend identifies a persistence backend.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

// TicketStore is the persistence contract for tickets. One implementation is
// selected at process start and fixed for the process lifetime; business
// logic never branches on the backend identity.
//
// RecordAddedUser and RecordRemovedUser must be atomic set-inserts at the
// storage layer: two concurrent calls against the same ticket may not lose
// either entry.
type TicketStore interface {
	// Create persists a new open ticket. Returns ErrDuplicateTicket (wrapped
	// in a PersistenceError) when the channel already has a ticket.
	Create(ctx context.Context, channelID, creatorID, description string) (*models.Ticket, error)

	// FindByChannel returns the ticket for a channel, or ErrTicketNotFound.
	FindByChannel(ctx context.Context, channelID string) (*models.Ticket, error)

	// RecordAddedUser inserts the subject into the ticket's append-only
	// added-history set.
	RecordAddedUser(ctx context.Context, channelID, subjectID string) error

	// RecordRemovedUser inserts the subject into the ticket's append-only
	// removed-history set.
	RecordRemovedUser(ctx context.Context, channelID, subjectID string) error

	// SetStatus writes the status unconditionally. Transition legality is
	// the coordinator's responsibility.
	SetStatus(ctx context.Context, channelID string, ticketStatus models.TicketStatus) error

	// Delete removes the record permanently. Deleting an absent record is
	// reported as ErrTicketNotFound so the caller can decide whether that
	// is fatal.
	Delete(ctx context.Context, channelID string) error

	// Close releases backend resources.
	Close() error
}

// New constructs the configured backend. The redis client is only consulted
// for the redis backend; it may be nil otherwise.
func New(cfg *config.Config, redisClient *redis.Client) (TicketStore, error) {
	switch Backend(cfg.StoreBackend) {
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("store: redis backend selected but no redis client configured")
		}
		return NewRedisStore(redisClient), nil
	case BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store: unsupported backend %q", cfg.StoreBackend)
	}
}
