package models

import (
	"time"
)

// TicketStatus enumerates the lifecycle states of a ticket.
type TicketStatus string

const (
	StatusOpen     TicketStatus = "open"
	StatusArchived TicketStatus = "archived"
	StatusDeleted  TicketStatus = "deleted"
)

// Ticket pairs a backing channel with its lifecycle status and the
// participant history. UsersAdded and UsersRemoved are append-only: they
// record every subject ever granted or revoked through the ticket, not who
// currently has access, and a subject can appear in both.
type Ticket struct {
	ChannelID    string       `json:"channel_id" db:"channel_id"`
	CreatorID    string       `json:"creator_id" db:"creator_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	Description  string       `json:"description" db:"description"`
	Status       TicketStatus `json:"status" db:"status"`
	UsersAdded   []string     `json:"users_added" db:"-"`
	UsersRemoved []string     `json:"users_removed" db:"-"`
}

// ChannelRef identifies a channel on the chat platform. The name travels
// with the reference because the dispatch layer delivers it with every
// action and the archive rename decision depends on it.
type ChannelRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// CategoryRef identifies a named grouping container for channels.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Overwrite is a per-subject visibility entry on a channel.
type Overwrite struct {
	SubjectID string `json:"subject_id"`
	View      bool   `json:"view"`
}
