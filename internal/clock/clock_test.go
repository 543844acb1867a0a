package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	c := NewFakeClock(start)
	assert.Equal(t, time.UTC, c.Now().Location())

	c.Advance(7 * 24 * time.Hour)
	assert.Equal(t, start.Add(7*24*time.Hour).UTC(), c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}
