package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDedupe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := NewRedisDedupe(client, time.Hour)
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "twilio", "SM123")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.MarkProcessed(ctx, "twilio", "SM123")
	require.NoError(t, err)
	assert.False(t, again)

	// Same event id under a different provider is a distinct event.
	other, err := d.MarkProcessed(ctx, "razorpay", "SM123")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestRedisDedupeExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := NewRedisDedupe(client, time.Minute)
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "twilio", "SM123")
	require.NoError(t, err)
	assert.True(t, first)

	mr.FastForward(2 * time.Minute)

	again, err := d.MarkProcessed(ctx, "twilio", "SM123")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestNewRedisDedupeNilClient(t *testing.T) {
	assert.Nil(t, NewRedisDedupe(nil, time.Hour))
}

func TestMemoryDedupe(t *testing.T) {
	d := NewMemoryDedupe(time.Hour)
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "twilio", "SM123")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.MarkProcessed(ctx, "twilio", "SM123")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := d.MarkProcessed(ctx, "twilio", "SM999")
	require.NoError(t, err)
	assert.True(t, other)
}
