package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c := New(nil)
	require.False(t, c.Enabled())

	require.NoError(t, c.Set(context.Background(), "k", map[string]int{"a": 1}, time.Minute))
	var out map[string]int
	hit, err := c.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Delete(context.Background(), "k"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cicilan:cache:stats:all", Key(StatsKey("")))
	assert.Equal(t, "cicilan:cache:stats:reseller:9", Key(StatsKey(" 9 ")))
}
