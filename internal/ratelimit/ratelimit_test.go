package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekKeysShareHashTag(t *testing.T) {
	keys := WeekKeys(" 42 ", []int{1, 3})
	assert.Equal(t, []string{"cicilan:week:{42}:1", "cicilan:week:{42}:3"}, keys)
}

func TestDisabledReserverGrantsEverything(t *testing.T) {
	r := NewWeekReserver(nil)
	assert.False(t, r.Enabled())

	token, err := r.Reserve(context.Background(), "1", []int{1, 2}, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.NoError(t, r.Release(context.Background(), "1", []int{1, 2}, token))
	assert.NoError(t, r.ReleaseTransaction(context.Background(), "1", 4))
}

func TestDisabledSubmissionLimiterAdmits(t *testing.T) {
	l := NewSubmissionLimiter(NewTokenBucket(nil), config.NewStaticLedgerPolicyHolder(config.DefaultLedgerPolicy()))
	res, err := l.Allow(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRetryAfter(t *testing.T) {
	assert.Zero(t, retryAfter(true, 0, 1))
	assert.Equal(t, 500*time.Millisecond, retryAfter(false, 0.5, 1))
	assert.Equal(t, 2*time.Second, retryAfter(false, 0, 0.5))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 20*time.Second, bucketTTL(1, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestLockerWithoutClient(t *testing.T) {
	l := NewLocker(nil)
	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, l.Release(context.Background(), "k", "t"))
}
