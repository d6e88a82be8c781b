package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"

	"ticketdesk/internal/status"
	"ticketdesk/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tickets (
  channel_id  TEXT PRIMARY KEY,
  creator_id  TEXT NOT NULL,
  created_at  TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  status      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ticket_members (
  channel_id TEXT NOT NULL,
  subject_id TEXT NOT NULL,
  kind       TEXT NOT NULL,
  PRIMARY KEY (channel_id, subject_id, kind)
);`

const (
	memberKindAdded   = "added"
	memberKindRemoved = "removed"
)

// SQLiteStore persists tickets in a local SQLite database. History sets live
// in ticket_members with INSERT OR IGNORE as the atomic set-insert.
type SQLiteStore struct {
	db *dbx.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := dbx.Open("sqlite", path)
	if err != nil {
		return nil, status.Persistence("open", err)
	}
	if _, err := db.NewQuery(sqliteSchema).Execute(); err != nil {
		db.Close()
		return nil, status.Persistence("init_schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

type ticketRow struct {
	ChannelID   string `db:"channel_id"`
	CreatorID   string `db:"creator_id"`
	CreatedAt   string `db:"created_at"`
	Description string `db:"description"`
	Status      string `db:"status"`
}

func (s *SQLiteStore) Create(ctx context.Context, channelID, creatorID, description string) (*models.Ticket, error) {
	createdAt := time.Now().UTC()
	_, err := s.db.Insert("tickets", dbx.Params{
		"channel_id":  channelID,
		"creator_id":  creatorID,
		"created_at":  createdAt.Format(time.RFC3339Nano),
		"description": description,
		"status":      string(models.StatusOpen),
	}).WithContext(ctx).Execute()
	if err != nil {
		if isUniqueViolation(err) {
			return nil, status.Persistence("create", status.ErrDuplicateTicket)
		}
		return nil, status.Persistence("create", err)
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

func (s *SQLiteStore) FindByChannel(ctx context.Context, channelID string) (*models.Ticket, error) {
	var row ticketRow
	err := s.db.Select("channel_id", "creator_id", "created_at", "description", "status").
		From("tickets").
		Where(dbx.HashExp{"channel_id": channelID}).
		WithContext(ctx).
		One(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTicketNotFound
		}
		return nil, status.Persistence("find", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, status.Persistence("find", err)
	}

	added, err := s.members(ctx, channelID, memberKindAdded)
	if err != nil {
		return nil, err
	}
	removed, err := s.members(ctx, channelID, memberKindRemoved)
	if err != nil {
		return nil, err
	}

	return &models.Ticket{
		ChannelID:    row.ChannelID,
		CreatorID:    row.CreatorID,
		CreatedAt:    createdAt,
		Description:  row.Description,
		Status:       models.TicketStatus(row.Status),
		UsersAdded:   added,
		UsersRemoved: removed,
	}, nil
}

func (s *SQLiteStore) members(ctx context.Context, channelID, kind string) ([]string, error) {
	var subjects []string
	err := s.db.Select("subject_id").
		From("ticket_members").
		Where(dbx.HashExp{"channel_id": channelID, "kind": kind}).
		OrderBy("subject_id").
		WithContext(ctx).
		Column(&subjects)
	if err != nil {
		return nil, status.Persistence("find", err)
	}
	if subjects == nil {
		subjects = []string{}
	}
	return subjects, nil
}

func (s *SQLiteStore) RecordAddedUser(ctx context.Context, channelID, subjectID string) error {
	return s.recordMember(ctx, "record_added_user", channelID, subjectID, memberKindAdded)
}

func (s *SQLiteStore) RecordRemovedUser(ctx context.Context, channelID, subjectID string) error {
	return s.recordMember(ctx, "record_removed_user", channelID, subjectID, memberKindRemoved)
}

func (s *SQLiteStore) recordMember(ctx context.Context, op, channelID, subjectID, kind string) error {
	if err := s.exists(ctx, channelID); err != nil {
		return err
	}
	_, err := s.db.NewQuery(
		"INSERT OR IGNORE INTO ticket_members (channel_id, subject_id, kind) VALUES ({:channel}, {:subject}, {:kind})",
	).Bind(dbx.Params{
		"channel": channelID,
		"subject": subjectID,
		"kind":    kind,
	}).WithContext(ctx).Execute()
	if err != nil {
		return status.Persistence(op, err)
	}
	return nil
}

func (s *SQLiteStore) SetStatus(ctx context.Context, channelID string, ticketStatus models.TicketStatus) error {
	result, err := s.db.Update("tickets",
		dbx.Params{"status": string(ticketStatus)},
		dbx.HashExp{"channel_id": channelID},
	).WithContext(ctx).Execute()
	if err != nil {
		return status.Persistence("set_status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return status.Persistence("set_status", err)
	}
	if affected == 0 {
		return status.ErrTicketNotFound
	}
	return nil
}

// Delete removes the record and its history rows in one transaction so a
// failure cannot leave a live ticket with wiped history sets.
func (s *SQLiteStore) Delete(ctx context.Context, channelID string) error {
	found := false
	err := s.db.Transactional(func(tx *dbx.Tx) error {
		if _, err := tx.Delete("ticket_members", dbx.HashExp{"channel_id": channelID}).WithContext(ctx).Execute(); err != nil {
			return err
		}
		result, err := tx.Delete("tickets", dbx.HashExp{"channel_id": channelID}).WithContext(ctx).Execute()
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		found = affected > 0
		return nil
	})
	if err != nil {
		return status.Persistence("delete", err)
	}
	if !found {
		return status.ErrTicketNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) exists(ctx context.Context, channelID string) error {
	var one int
	err := s.db.Select("(1)").
		From("tickets").
		Where(dbx.HashExp{"channel_id": channelID}).
		WithContext(ctx).
		Row(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrTicketNotFound
		}
		return status.Persistence("find", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
