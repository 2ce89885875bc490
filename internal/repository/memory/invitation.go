package memory

import (
	"context"
	"maps"

	"waitlist/internal/domain"
)

type invitationRepository struct {
	s *Store
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv.ID = newID()
	c := *inv
	c.Metadata = maps.Clone(inv.Metadata)
	r.s.invitations = append(r.s.invitations, &c)
	return nil
}

func (r *invitationRepository) ListByInvitable(ctx context.Context, target domain.Invitable) ([]*domain.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	invs := []*domain.Invitation{}
	for i := len(r.s.invitations) - 1; i >= 0; i-- {
		inv := r.s.invitations[i]
		if inv.InvitableType == target.Type && inv.InvitableID == target.ID {
			c := *inv
			c.Metadata = maps.Clone(inv.Metadata)
			invs = append(invs, &c)
		}
	}
	return invs, nil
}
