package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrasnap/internal/domain/options"
	"lyrasnap/internal/testsupport"
)

func TestInstrumentCache_Key(t *testing.T) {
	c := NewInstrumentCache(nil, time.Hour)
	assert.Equal(t, "lyrasnap:instrument:BTC-20260925-95000-C", c.getKey("BTC-20260925-95000-C"))
}

func TestInstrumentCache_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := testsupport.NewRedisClient(t, testsupport.RedisConfigFromEnv(t))
	cache := NewInstrumentCache(client, time.Minute)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "BTC-20260925-95000-C")
	require.NoError(t, err)
	assert.Nil(t, miss)

	inst := &options.Instrument{
		Name:       "BTC-20260925-95000-C",
		Index:      "BTC-USD",
		OptionType: "C",
		Strike:     95000,
		ExpiryUnix: 1790323200,
		Expiry:     "20260925",
	}
	require.NoError(t, cache.Set(ctx, inst))

	got, err := cache.Get(ctx, inst.Name)
	require.NoError(t, err)
	assert.Equal(t, inst, got)

	ttl, err := client.TTL(ctx, cache.getKey(inst.Name)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Delete(ctx, inst.Name))
	got, err = cache.Get(ctx, inst.Name)
	require.NoError(t, err)
	assert.Nil(t, got)
}
