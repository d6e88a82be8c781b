package services

import (
	"context"

	"github.com/rs/zerolog"

	"ticketdesk/internal/status"
	"ticketdesk/models"
	"ticketdesk/platform"
)

// CategoryResolver finds or creates the named category a ticket channel
// should live under. Find-or-create is idempotent in effect but not atomic:
// the platform offers no check-and-create primitive, so two concurrent
// resolvers can legitimately end up creating same-named categories. Callers
// treat the duplicates as functionally equivalent.
type CategoryResolver struct {
	client platform.Client
	logger zerolog.Logger
}

func NewCategoryResolver(client platform.Client, logger zerolog.Logger) *CategoryResolver {
	return &CategoryResolver{client: client, logger: logger}
}

func (r *CategoryResolver) EnsureCategory(ctx context.Context, scope, name string) (models.CategoryRef, error) {
	found, err := r.client.FindCategory(ctx, scope, name)
	if err != nil {
		return models.CategoryRef{}, status.External("find_category", err)
	}
	if found != nil {
		return *found, nil
	}

	created, err := r.client.CreateCategory(ctx, scope, name)
	if err != nil {
		return models.CategoryRef{}, status.External("create_category", err)
	}
	r.logger.Info().Str("category", name).Str("scope", scope).Msg("created category")
	return created, nil
}
