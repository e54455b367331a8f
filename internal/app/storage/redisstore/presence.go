// Package redisstore implements presence tracking on Redis. Keys carry a
// TTL so entries lapse server-side without a cleaner.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/veltasoft/worksuite/internal/app/domain/presence"
	"github.com/veltasoft/worksuite/internal/app/storage"
)

const keyPrefix = "presence"

// PresenceStore tracks presence entries as expiring Redis keys.
type PresenceStore struct {
	client *redis.Client
}

var _ storage.PresenceStore = (*PresenceStore)(nil)

// NewPresenceStore wraps a connected Redis client.
func NewPresenceStore(client *redis.Client) *PresenceStore {
	return &PresenceStore{client: client}
}

func entryKey(tenantID, resource, userID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, tenantID, resource, userID)
}

func (s *PresenceStore) Heartbeat(ctx context.Context, e presence.Entry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, entryKey(e.TenantID, e.Resource, e.UserID), payload, ttl).Err()
}

func (s *PresenceStore) ListActive(ctx context.Context, tenantID, resource string) ([]presence.Entry, error) {
	pattern := fmt.Sprintf("%s:%s:%s:*", keyPrefix, tenantID, resource)

	var out []presence.Entry
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			// Expired between scan and read.
			continue
		}
		if err != nil {
			return nil, err
		}
		var e presence.Entry
		if err := json.Unmarshal(payload, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PresenceStore) Leave(ctx context.Context, tenantID, userID, resource string) error {
	return s.client.Del(ctx, entryKey(tenantID, resource, userID)).Err()
}
