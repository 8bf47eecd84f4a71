// Package services holds integrations around the relay core. The only
// one in this deployment is the Redis presence mirror.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey   = "chat:online_users"
	presenceChannel  = "chat:presence"
	statusKeyPrefix  = "chat:user:"
	statusKeySuffix  = ":status"
	offlineStatusTTL = 24 * time.Hour
)

// PresenceMirror mirrors join/leave transitions into Redis for external
// status tooling. It is strictly write-only with respect to the relay:
// the broadcast path never reads the mirrored state, so the connection
// registry remains the single source of truth for fan-out.
type PresenceMirror struct {
	rdb *redis.Client
	log *slog.Logger
}

// Dial connects to Redis from a URL of the usual
// redis://[:password@]host:port/db form and verifies the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func NewPresenceMirror(rdb *redis.Client, log *slog.Logger) *PresenceMirror {
	return &PresenceMirror{rdb: rdb, log: log}
}

func (m *PresenceMirror) SessionOnline(ctx context.Context, identity string) error {
	pipe := m.rdb.Pipeline()
	pipe.SAdd(ctx, onlineUsersKey, identity)
	pipe.HSet(ctx, statusKey(identity), map[string]interface{}{
		"status":    "online",
		"last_seen": time.Now().Unix(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return m.publish(ctx, "presence.join", identity)
}

func (m *PresenceMirror) SessionOffline(ctx context.Context, identity string) error {
	pipe := m.rdb.Pipeline()
	pipe.SRem(ctx, onlineUsersKey, identity)
	pipe.HSet(ctx, statusKey(identity), map[string]interface{}{
		"status":    "offline",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, statusKey(identity), offlineStatusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return m.publish(ctx, "presence.leave", identity)
}

func (m *PresenceMirror) publish(ctx context.Context, kind, identity string) error {
	payload := kind + ":" + identity
	if err := m.rdb.Publish(ctx, presenceChannel, payload).Err(); err != nil {
		m.log.Warn("presence event publish failed", "kind", kind, "user", identity, "error", err)
		return err
	}
	return nil
}

func statusKey(identity string) string {
	return statusKeyPrefix + identity + statusKeySuffix
}
