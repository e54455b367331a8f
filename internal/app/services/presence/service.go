package presence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veltasoft/worksuite/internal/app/domain/presence"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// DefaultTTL is how long a heartbeat keeps a user marked active.
const DefaultTTL = 30 * time.Second

// Service tracks which users are active on which resources. Entries are
// kept alive by heartbeats and lapse after the TTL.
type Service struct {
	store storage.PresenceStore
	ttl   time.Duration
	log   *logger.Logger
}

// New constructs a presence service. A non-positive ttl falls back to
// DefaultTTL.
func New(store storage.PresenceStore, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewDefault("presence")
	}
	return &Service{store: store, ttl: ttl, log: log}
}

// TTL reports the heartbeat lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Heartbeat marks the user active on the resource for another TTL window.
func (s *Service) Heartbeat(ctx context.Context, tenantID, userID, resource string) (presence.Entry, error) {
	tenantID = strings.TrimSpace(tenantID)
	userID = strings.TrimSpace(userID)
	resource = strings.TrimSpace(resource)
	if tenantID == "" || userID == "" || resource == "" {
		return presence.Entry{}, fmt.Errorf("tenant, user and resource are required")
	}

	now := time.Now().UTC()
	entry := presence.Entry{
		TenantID:  tenantID,
		UserID:    userID,
		Resource:  resource,
		SeenAt:    now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Heartbeat(ctx, entry, s.ttl); err != nil {
		return presence.Entry{}, fmt.Errorf("record heartbeat: %w", err)
	}
	return entry, nil
}

// Active lists the users currently active on the resource.
func (s *Service) Active(ctx context.Context, tenantID, resource string) ([]presence.Entry, error) {
	if tenantID == "" || resource == "" {
		return nil, fmt.Errorf("tenant and resource are required")
	}
	return s.store.ListActive(ctx, tenantID, resource)
}

// Leave removes the user from the resource before the TTL lapses.
func (s *Service) Leave(ctx context.Context, tenantID, userID, resource string) error {
	if tenantID == "" || userID == "" || resource == "" {
		return fmt.Errorf("tenant, user and resource are required")
	}
	return s.store.Leave(ctx, tenantID, userID, resource)
}
