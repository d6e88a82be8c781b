package platform

import (
	"context"

	"ticketdesk/models"
)

// Client is the set of chat-platform primitives the coordinator needs.
// Implementations must not retry internally; the coordinator decides what a
// failed call means for the transition in progress.
type Client interface {
	// CreateChannel creates a text channel under the given parent category
	// with the provided initial visibility overwrites.
	CreateChannel(ctx context.Context, scope, parentID, name string, overwrites []models.Overwrite) (models.ChannelRef, error)

	// RenameChannel changes a channel's display name.
	RenameChannel(ctx context.Context, channelID, name string) error

	// MoveChannel reparents a channel into another category.
	MoveChannel(ctx context.Context, channelID, parentID string) error

	// DeleteChannel permanently removes a channel. Irreversible.
	DeleteChannel(ctx context.Context, channelID string) error

	// SetOverwrite sets the view permission for one subject on a channel
	// without disturbing other subjects' overwrites.
	SetOverwrite(ctx context.Context, channelID, subjectID string, view bool) error

	// FindCategory returns the category with the exact name within the
	// scope, or nil when no such category exists.
	FindCategory(ctx context.Context, scope, name string) (*models.CategoryRef, error)

	// CreateCategory creates a new category within the scope.
	CreateCategory(ctx context.Context, scope, name string) (models.CategoryRef, error)
}
