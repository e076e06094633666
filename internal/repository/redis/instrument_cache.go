package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lyrasnap/internal/domain/options"
	"lyrasnap/pkg/errors"
)

// Compile-time check
var _ options.InstrumentCache = (*InstrumentCache)(nil)

// InstrumentCache caches static instrument metadata in Redis with a TTL
type InstrumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInstrumentCache creates a new instrument metadata cache
func NewInstrumentCache(client *redis.Client, ttl time.Duration) *InstrumentCache {
	return &InstrumentCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached instrument, or nil when it is not cached
func (c *InstrumentCache) Get(ctx context.Context, name string) (*options.Instrument, error) {
	data, err := c.client.Get(ctx, c.getKey(name)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get instrument from redis: %s", name)
	}

	var inst options.Instrument
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal instrument: %s", name)
	}
	return &inst, nil
}

// Set stores an instrument with the cache TTL
func (c *InstrumentCache) Set(ctx context.Context, inst *options.Instrument) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal instrument: %s", inst.Name)
	}

	if err := c.client.Set(ctx, c.getKey(inst.Name), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save instrument to redis: %s", inst.Name)
	}
	return nil
}

// Delete evicts instruments from the cache
func (c *InstrumentCache) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = c.getKey(name)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete instruments from redis")
	}
	return nil
}

func (c *InstrumentCache) getKey(name string) string {
	return fmt.Sprintf("lyrasnap:instrument:%s", name)
}
