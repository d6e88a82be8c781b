package services

import (
	"context"

	"ticketdesk/internal/status"
	"ticketdesk/platform"
)

// PermissionController applies and revokes per-subject visibility on ticket
// channels. Both operations are idempotent and touch only the one subject's
// overwrite. Failures surface to the caller untried; the coordinator decides
// what a failed grant means for the transition in progress.
type PermissionController struct {
	client platform.Client
}

func NewPermissionController(client platform.Client) *PermissionController {
	return &PermissionController{client: client}
}

// GrantView ensures the subject can view the channel.
func (p *PermissionController) GrantView(ctx context.Context, channelID, subjectID string) error {
	if err := p.client.SetOverwrite(ctx, channelID, subjectID, true); err != nil {
		return status.External("grant_view", err)
	}
	return nil
}

// RevokeView ensures the subject cannot view the channel.
func (p *PermissionController) RevokeView(ctx context.Context, channelID, subjectID string) error {
	if err := p.client.SetOverwrite(ctx, channelID, subjectID, false); err != nil {
		return status.External("revoke_view", err)
	}
	return nil
}
