package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"ticketdesk/internal/status"
	"ticketdesk/models"
)

// MemoryStore keeps tickets in process memory. It is the reference backend
// for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	tickets map[string]*memoryTicket
}

type memoryTicket struct {
	creatorID   string
	createdAt   time.Time
	description string
	ticketState models.TicketStatus
	added       map[string]struct{}
	removed     map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]*memoryTicket)}
}

func (s *MemoryStore) Create(ctx context.Context, channelID, creatorID, description string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[channelID]; exists {
		return nil, status.Persistence("create", status.ErrDuplicateTicket)
	}
	record := &memoryTicket{
		creatorID:   creatorID,
		createdAt:   time.Now().UTC(),
		description: description,
		ticketState: models.StatusOpen,
		added:       make(map[string]struct{}),
		removed:     make(map[string]struct{}),
	}
	s.tickets[channelID] = record
	return record.toModel(channelID), nil
}

func (s *MemoryStore) FindByChannel(ctx context.Context, channelID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.tickets[channelID]
	if !exists {
		return nil, status.ErrTicketNotFound
	}
	return record.toModel(channelID), nil
}

func (s *MemoryStore) RecordAddedUser(ctx context.Context, channelID, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.tickets[channelID]
	if !exists {
		return status.ErrTicketNotFound
	}
	record.added[subjectID] = struct{}{}
	return nil
}

func (s *MemoryStore) RecordRemovedUser(ctx context.Context, channelID, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.tickets[channelID]
	if !exists {
		return status.ErrTicketNotFound
	}
	record.removed[subjectID] = struct{}{}
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, channelID string, ticketStatus models.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.tickets[channelID]
	if !exists {
		return status.ErrTicketNotFound
	}
	record.ticketState = ticketStatus
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[channelID]; !exists {
		return status.ErrTicketNotFound
	}
	delete(s.tickets, channelID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (t *memoryTicket) toModel(channelID string) *models.Ticket {
	return &models.Ticket{
		ChannelID:    channelID,
		CreatorID:    t.creatorID,
		CreatedAt:    t.createdAt,
		Description:  t.description,
		Status:       t.ticketState,
		UsersAdded:   sortedMembers(t.added),
		UsersRemoved: sortedMembers(t.removed),
	}
}

func sortedMembers(set map[string]struct{}) []string {
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}
