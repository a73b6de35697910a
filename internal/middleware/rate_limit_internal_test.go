package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_EvictsIdleAddresses(t *testing.T) {
	now := time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return now }

	first := l.GetLimiter("10.0.0.1")
	l.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())
	assert.Same(t, first, l.GetLimiter("10.0.0.1"))

	now = now.Add(limiterIdleTTL - time.Minute)
	l.GetLimiter("10.0.0.1")

	now = now.Add(2 * time.Minute)
	l.GetLimiter("10.0.0.3")

	assert.Equal(t, 2, l.Len())
	_, kept := l.visitors["10.0.0.1"]
	_, evicted := l.visitors["10.0.0.2"]
	assert.True(t, kept)
	assert.False(t, evicted)
}
