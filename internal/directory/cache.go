package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key pattern: profile:{user_id}, 5m TTL.
const profileTTL = 5 * time.Minute

// CachedDirectory decorates a Directory with a Redis read-through cache.
type CachedDirectory struct {
	inner  Directory
	client *goredis.Client
	ttl    time.Duration
}

func NewCachedDirectory(inner Directory, client *goredis.Client) *CachedDirectory {
	return &CachedDirectory{inner: inner, client: client, ttl: profileTTL}
}

func (c *CachedDirectory) Profile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	key := fmt.Sprintf("profile:%s", userID.String())

	data, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var p Profile
		if err := json.Unmarshal([]byte(data), &p); err == nil {
			return p, nil
		}
		// Corrupt cache entry, fall through to the source of truth.
	} else if err != goredis.Nil {
		return Profile{}, err
	}

	p, err := c.inner.Profile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		c.client.Set(ctx, key, encoded, c.ttl)
	}
	return p, nil
}
