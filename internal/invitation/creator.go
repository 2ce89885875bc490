package invitation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"waitlist/internal/domain"
)

// RepositoryCreator stores invitations in the local invitations table and
// returns the row id as the reference.
type RepositoryCreator struct {
	repo domain.InvitationRepository
	now  func() time.Time
}

func NewRepositoryCreator(repo domain.InvitationRepository) *RepositoryCreator {
	return &RepositoryCreator{repo: repo, now: time.Now}
}

func (c *RepositoryCreator) CreateInvitation(ctx context.Context, target domain.Invitable, email string, metadata map[string]any) (string, error) {
	if target.Type == "" || target.ID == "" {
		return "", fmt.Errorf("%w: invitable type and id are required", domain.ErrInvalidInput)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	inv := &domain.Invitation{
		InvitableType: target.Type,
		InvitableID:   target.ID,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		Metadata:      metadata,
		CreatedAt:     c.now(),
	}
	if err := c.repo.Create(ctx, inv); err != nil {
		return "", fmt.Errorf("store invitation: %w", err)
	}
	return inv.ID, nil
}
