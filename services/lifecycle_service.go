package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ticketdesk/config"
	"ticketdesk/internal/status"
	"ticketdesk/models"
	"ticketdesk/notify"
	"ticketdesk/platform"
	"ticketdesk/store"
	"ticketdesk/utils"
)

// LifecycleService owns the ticket state machine. Every operation is an
// ordered sequence of effects against the chat platform and the store; the
// two systems share no commit protocol, so each operation fixes the order
// its steps run in and reports exactly which step failed. No step is retried
// and no successful external effect is ever rolled back.
type LifecycleService struct {
	store      store.TicketStore
	client     platform.Client
	categories *CategoryResolver
	perms      *PermissionController
	notifier   notify.Notifier
	monitor    operationTracker
	cfg        *config.Config
	logger     zerolog.Logger
}

// operationTracker is the metrics surface the coordinator needs.
type operationTracker interface {
	TrackOperation(operation, outcome string)
	TrackDuration(operation string, d time.Duration)
	TrackStoreFailure(operation string)
}

func NewLifecycleService(
	ticketStore store.TicketStore,
	client platform.Client,
	categories *CategoryResolver,
	perms *PermissionController,
	notifier notify.Notifier,
	monitor operationTracker,
	cfg *config.Config,
	logger zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:      ticketStore,
		client:     client,
		categories: categories,
		perms:      perms,
		notifier:   notifier,
		monitor:    monitor,
		cfg:        cfg,
		logger:     logger,
	}
}

// CreateResult reports what a CreateTicket call actually did. When Recorded
// is false but the channel exists, the channel is an orphan: discoverable on
// the platform, referenced by no record.
type CreateResult struct {
	Ticket   *models.Ticket    `json:"ticket,omitempty"`
	Channel  models.ChannelRef `json:"channel"`
	Recorded bool              `json:"recorded"`
}

// ParticipantResult reports a membership change. PermissionApplied true with
// Recorded false means the access change is real but the history set was not
// updated: a degraded success, never silently swallowed.
type ParticipantResult struct {
	ChannelID         string `json:"channel_id"`
	SubjectID         string `json:"subject_id"`
	PermissionApplied bool   `json:"permission_applied"`
	Recorded          bool   `json:"recorded"`
}

// ClosePrompt is the confirmation produced by RequestClose. It is a pure
// branching point; nothing has been mutated when it is returned.
type ClosePrompt struct {
	ChannelID string              `json:"channel_id"`
	Status    models.TicketStatus `json:"status"`
	Options   []string            `json:"options"`
}

// ArchiveResult reports how far an archive transition got.
type ArchiveResult struct {
	ChannelID         string `json:"channel_id"`
	Renamed           bool   `json:"renamed"`
	Moved             bool   `json:"moved"`
	VisibilityRevoked bool   `json:"visibility_revoked"`
	Recorded          bool   `json:"recorded"`
}

// DeleteResult reports how far a delete got. RecordDeleted false with
// ChannelDeleted true is the tolerated outcome for out-of-band record
// removal; the inverse leaves an orphaned channel that only an operator
// can reconcile.
type DeleteResult struct {
	ChannelID      string `json:"channel_id"`
	RecordDeleted  bool   `json:"record_deleted"`
	ChannelDeleted bool   `json:"channel_deleted"`
}

// CreateTicket provisions a new ticket: open category, then channel with
// default-deny visibility plus a creator grant, then the record. The channel
// is created before the record on purpose: an orphaned channel is cleanable,
// a record pointing at a nonexistent channel is not. A failed record write
// leaves the channel in place; no compensating deletion is attempted.
func (s *LifecycleService) CreateTicket(ctx context.Context, actorID, actorName, description string) (*CreateResult, error) {
	started := time.Now()
	scope := s.cfg.PlatformScopeID

	category, err := s.categories.EnsureCategory(ctx, scope, s.cfg.OpenCategoryName)
	if err != nil {
		return s.failCreate(nil, err)
	}

	overwrites := []models.Overwrite{
		{SubjectID: scope, View: false},
		{SubjectID: actorID, View: true},
	}
	channel, err := s.client.CreateChannel(ctx, scope, category.ID, s.channelName(actorID, actorName), overwrites)
	if err != nil {
		return s.failCreate(nil, status.External("create_channel", err))
	}

	ticket, err := s.store.Create(ctx, channel.ID, actorID, description)
	if err != nil {
		s.monitor.TrackStoreFailure("create")
		s.logger.Error().Err(err).
			Str("channel_id", channel.ID).
			Str("creator_id", actorID).
			Msg("ticket record write failed after channel creation; channel left in place")
		return s.failCreate(&CreateResult{Channel: channel}, err)
	}

	s.publish(ctx, actorID, notify.Event{
		Type:      "ticket.created",
		ChannelID: channel.ID,
		Message:   "Your ticket has been created.",
	})

	s.monitor.TrackOperation("create", "success")
	s.monitor.TrackDuration("create", time.Since(started))
	s.logger.Info().Str("channel_id", channel.ID).Str("creator_id", actorID).Msg("ticket created")
	return &CreateResult{Ticket: ticket, Channel: channel, Recorded: true}, nil
}

// AddParticipant grants view access, then records the subject in the
// added-history set. The grant runs first: no record is written for an
// access change that did not happen.
func (s *LifecycleService) AddParticipant(ctx context.Context, channel models.ChannelRef, subjectID string) (*ParticipantResult, error) {
	result := &ParticipantResult{ChannelID: channel.ID, SubjectID: subjectID}

	if err := s.gate(ctx, channel.ID); err != nil {
		s.monitor.TrackOperation("add_participant", "error")
		return result, err
	}

	if err := s.perms.GrantView(ctx, channel.ID, subjectID); err != nil {
		s.monitor.TrackOperation("add_participant", "error")
		s.logger.Error().Err(err).Str("channel_id", channel.ID).Str("subject_id", subjectID).Msg("grant failed")
		return result, err
	}
	result.PermissionApplied = true

	if err := s.store.RecordAddedUser(ctx, channel.ID, subjectID); err != nil {
		s.monitor.TrackOperation("add_participant", "degraded")
		s.monitor.TrackStoreFailure("record_added_user")
		s.logger.Error().Err(err).
			Str("channel_id", channel.ID).
			Str("subject_id", subjectID).
			Msg("access granted but history write failed")
		return result, err
	}
	result.Recorded = true

	s.monitor.TrackOperation("add_participant", "success")
	return result, nil
}

// RemoveParticipant is symmetric to AddParticipant: revoke first, then
// record in the removed-history set.
func (s *LifecycleService) RemoveParticipant(ctx context.Context, channel models.ChannelRef, subjectID string) (*ParticipantResult, error) {
	result := &ParticipantResult{ChannelID: channel.ID, SubjectID: subjectID}

	if err := s.gate(ctx, channel.ID); err != nil {
		s.monitor.TrackOperation("remove_participant", "error")
		return result, err
	}

	if err := s.perms.RevokeView(ctx, channel.ID, subjectID); err != nil {
		s.monitor.TrackOperation("remove_participant", "error")
		s.logger.Error().Err(err).Str("channel_id", channel.ID).Str("subject_id", subjectID).Msg("revoke failed")
		return result, err
	}
	result.PermissionApplied = true

	if err := s.store.RecordRemovedUser(ctx, channel.ID, subjectID); err != nil {
		s.monitor.TrackOperation("remove_participant", "degraded")
		s.monitor.TrackStoreFailure("record_removed_user")
		s.logger.Error().Err(err).
			Str("channel_id", channel.ID).
			Str("subject_id", subjectID).
			Msg("access revoked but history write failed")
		return result, err
	}
	result.Recorded = true

	s.monitor.TrackOperation("remove_participant", "success")
	return result, nil
}

// RequestClose is a pure gate: it confirms the ticket exists and is not
// deleted, and returns the legal confirmations. It mutates nothing.
func (s *LifecycleService) RequestClose(ctx context.Context, channel models.ChannelRef) (*ClosePrompt, error) {
	ticket, err := s.store.FindByChannel(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.StatusDeleted {
		return nil, status.ErrTicketDeleted
	}

	options := []string{"delete"}
	if ticket.Status == models.StatusOpen {
		options = []string{"archive", "delete"}
	}
	return &ClosePrompt{ChannelID: channel.ID, Status: ticket.Status, Options: options}, nil
}

// ConfirmArchive moves the ticket to the archived state. All platform
// effects (rename, move, broad-visibility revoke) run before the status
// write: an externally-archived-but-unrecorded ticket beats a
// recorded-archived ticket that is not actually archived. The rename is
// cosmetic and skipped with a warning when the channel name does not carry
// the open-ticket prefix, which also makes a repeated archive converge on
// the same end state.
func (s *LifecycleService) ConfirmArchive(ctx context.Context, channel models.ChannelRef) (*ArchiveResult, error) {
	started := time.Now()
	result := &ArchiveResult{ChannelID: channel.ID}

	if err := s.gate(ctx, channel.ID); err != nil {
		s.monitor.TrackOperation("archive", "error")
		return result, err
	}

	category, err := s.categories.EnsureCategory(ctx, s.cfg.PlatformScopeID, s.cfg.ArchiveCategoryName)
	if err != nil {
		s.monitor.TrackOperation("archive", "error")
		return result, err
	}

	if strings.HasPrefix(channel.Name, s.cfg.OpenTicketPrefix) {
		archivedName := s.cfg.ArchivedPrefix + strings.TrimPrefix(channel.Name, s.cfg.OpenTicketPrefix)
		if err := s.client.RenameChannel(ctx, channel.ID, archivedName); err != nil {
			s.monitor.TrackOperation("archive", "error")
			return result, status.External("rename_channel", err)
		}
		result.Renamed = true
	} else {
		s.logger.Warn().
			Str("channel_id", channel.ID).
			Str("name", channel.Name).
			Msg("channel name does not match open-ticket convention, skipping rename")
	}

	if err := s.client.MoveChannel(ctx, channel.ID, category.ID); err != nil {
		s.monitor.TrackOperation("archive", "error")
		return result, status.External("move_channel", err)
	}
	result.Moved = true

	if err := s.perms.RevokeView(ctx, channel.ID, s.cfg.PlatformScopeID); err != nil {
		s.monitor.TrackOperation("archive", "error")
		return result, err
	}
	result.VisibilityRevoked = true

	if err := s.store.SetStatus(ctx, channel.ID, models.StatusArchived); err != nil {
		s.monitor.TrackOperation("archive", "degraded")
		s.monitor.TrackStoreFailure("set_status")
		s.logger.Error().Err(err).
			Str("channel_id", channel.ID).
			Msg("channel archived on platform but status write failed")
		return result, err
	}
	result.Recorded = true

	s.monitor.TrackOperation("archive", "success")
	s.monitor.TrackDuration("archive", time.Since(started))
	s.logger.Info().Str("channel_id", channel.ID).Msg("ticket archived")
	return result, nil
}

// ConfirmDelete tears the ticket down. The order inverts the rest of the
// design: acknowledge the actor first, delete the record second, delete the
// channel last. Channel deletion is irreversible and ends the actor's
// ability to interact, so nothing may run after it. A missing record is
// logged and does not stop the channel deletion; delete is best-effort, not
// a guarded transition. A failed final channel deletion after a successful
// record delete leaves a permanently orphaned channel with no reconciliation
// path here; it is logged for the operator.
func (s *LifecycleService) ConfirmDelete(ctx context.Context, channel models.ChannelRef, actorID string) (*DeleteResult, error) {
	result := &DeleteResult{ChannelID: channel.ID}

	s.publish(ctx, actorID, notify.Event{
		Type:      "ticket.deleted",
		ChannelID: channel.ID,
		Message:   "Ticket has been deleted.",
	})

	var recordErr error
	if err := s.store.Delete(ctx, channel.ID); err != nil {
		if errors.Is(err, status.ErrTicketNotFound) {
			s.logger.Warn().Str("channel_id", channel.ID).Msg("no ticket record to delete, proceeding with channel deletion")
		} else {
			recordErr = err
			s.monitor.TrackStoreFailure("delete")
			s.logger.Error().Err(err).Str("channel_id", channel.ID).Msg("record delete failed, proceeding with channel deletion")
		}
	} else {
		result.RecordDeleted = true
	}

	if err := s.client.DeleteChannel(ctx, channel.ID); err != nil {
		s.monitor.TrackOperation("delete", "error")
		s.logger.Error().Err(err).
			Str("channel_id", channel.ID).
			Bool("record_deleted", result.RecordDeleted).
			Msg("channel deletion failed; channel may be orphaned")
		return result, status.External("delete_channel", err)
	}
	result.ChannelDeleted = true

	if recordErr != nil {
		s.monitor.TrackOperation("delete", "degraded")
		return result, recordErr
	}

	s.monitor.TrackOperation("delete", "success")
	s.logger.Info().Str("channel_id", channel.ID).Msg("ticket deleted")
	return result, nil
}

// FindTicket exposes the stored record to the dispatch layer.
func (s *LifecycleService) FindTicket(ctx context.Context, channelID string) (*models.Ticket, error) {
	return s.store.FindByChannel(ctx, channelID)
}

// gate rejects operations addressed to missing or deleted tickets. Deleted
// is terminal; nothing mutates a ticket past it.
func (s *LifecycleService) gate(ctx context.Context, channelID string) error {
	ticket, err := s.store.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ticket.Status == models.StatusDeleted {
		return status.ErrTicketDeleted
	}
	return nil
}

func (s *LifecycleService) channelName(actorID, actorName string) string {
	name := strings.ToLower(strings.TrimSpace(actorName))
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" {
		if code, err := utils.GenerateCode(3); err == nil {
			name = strings.ToLower(code)
		} else {
			name = actorID
		}
	}
	return s.cfg.OpenTicketPrefix + name
}

func (s *LifecycleService) publish(ctx context.Context, subjectID string, event notify.Event) {
	if err := s.notifier.PublishLifecycleEvent(ctx, subjectID, event); err != nil {
		s.logger.Warn().Err(err).Str("subject_id", subjectID).Str("event", event.Type).Msg("notification failed")
	}
}

func (s *LifecycleService) failCreate(result *CreateResult, err error) (*CreateResult, error) {
	s.monitor.TrackOperation("create", "error")
	if result == nil {
		result = &CreateResult{}
	}
	return result, err
}
