// Package invitation bridges invited waitlist entries to the external
// invitation store.
package invitation

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"waitlist/internal/domain"
)

// Nop resolves no invitable for any entry, which leaves the bridge disabled.
type Nop struct{}

func (Nop) ResolveInvitable(context.Context, *domain.Entry) (*domain.Invitable, error) {
	return nil, nil
}

func (Nop) MapMetadata(context.Context, *domain.Entry) (map[string]any, error) {
	return map[string]any{}, nil
}

// Config selects the invitable type and how entries map onto it.
type Config struct {
	InvitableType string
	TargetKey     string
	DefaultTarget string
	MetadataKeys  []string
}

// MetadataStrategy reads the invitable id from the entry's metadata under
// TargetKey and copies MetadataKeys into the invitation metadata.
type MetadataStrategy struct {
	cfg Config
}

// NewStrategy returns a MetadataStrategy, or Nop when no invitable type is set.
func NewStrategy(cfg Config) domain.InvitationStrategy {
	if strings.TrimSpace(cfg.InvitableType) == "" {
		return Nop{}
	}
	if cfg.TargetKey == "" {
		cfg.TargetKey = "invitable_id"
	}
	return &MetadataStrategy{cfg: cfg}
}

func (s *MetadataStrategy) ResolveInvitable(_ context.Context, e *domain.Entry) (*domain.Invitable, error) {
	id := s.cfg.DefaultTarget
	if v, ok := e.Metadata[s.cfg.TargetKey]; ok && v != nil {
		switch t := v.(type) {
		case string:
			id = t
		case float64:
			id = fmt.Sprintf("%.0f", t)
		case int, int64:
			id = fmt.Sprintf("%d", t)
		default:
			return nil, fmt.Errorf("%w: metadata %q has unsupported type %T", domain.ErrInvalidInput, s.cfg.TargetKey, v)
		}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	return &domain.Invitable{Type: s.cfg.InvitableType, ID: id}, nil
}

func (s *MetadataStrategy) MapMetadata(_ context.Context, e *domain.Entry) (map[string]any, error) {
	out := map[string]any{
		"waitlist_id":       e.WaitlistID,
		"waitlist_entry_id": e.ID,
		"name":              e.Name,
	}
	if len(s.cfg.MetadataKeys) == 0 {
		return out, nil
	}
	src := maps.Clone(e.Metadata)
	for _, k := range s.cfg.MetadataKeys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}
