package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/internal/ratelimit"
)

func TestLimiter_Burst(t *testing.T) {
	l := ratelimit.New(0.001, 2)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestLimiter_Disabled(t *testing.T) {
	l := ratelimit.New(0, 0)
	for range 100 {
		require.True(t, l.Allow())
	}

	var nilLimiter *ratelimit.Limiter
	assert.NoError(t, nilLimiter.Wait(context.Background()))
}

func TestForEndpoint_Shared(t *testing.T) {
	a := ratelimit.ForEndpoint("http://node-a.test", 0.001, 1)
	b := ratelimit.ForEndpoint("http://node-a.test", 100, 100)
	other := ratelimit.ForEndpoint("http://node-b.test", 0.001, 1)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)

	assert.True(t, a.Allow())
	assert.False(t, b.Allow())
	assert.True(t, other.Allow())
}
