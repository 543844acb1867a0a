package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// All keys are set or none are.
const reserveWeeksScript = `
for i, key in ipairs(KEYS) do
  if redis.call("EXISTS", key) == 1 then
    return 0
  end
end
for i, key in ipairs(KEYS) do
  redis.call("SET", key, ARGV[1], "PX", ARGV[2])
end
return 1
`

const releaseWeeksScript = `
local released = 0
for i, key in ipairs(KEYS) do
  if redis.call("GET", key) == ARGV[1] then
    released = released + redis.call("DEL", key)
  end
end
return released
`

const keyWeekReservation = "cicilan:week:{%s}:%d"

var ErrWeeksReserved = errors.New("week_reserved")

// WeekReserver holds short-lived claims on (transaction, week) pairs while a
// payment covering them waits for review. The database constraint on
// confirmed weeks stays authoritative; reservations only stop two pending
// submissions from overlapping.
type WeekReserver struct {
	client  *redis.Client
	reserve *redis.Script
	release *redis.Script
}

func NewWeekReserver(client *redis.Client) *WeekReserver {
	return &WeekReserver{
		client:  client,
		reserve: redis.NewScript(reserveWeeksScript),
		release: redis.NewScript(releaseWeeksScript),
	}
}

func (r *WeekReserver) Enabled() bool {
	return r != nil && r.client != nil
}

// Reserve claims every week for transactionID and returns the owner token.
// It returns ErrWeeksReserved when any of the weeks is already held.
// A disabled reserver grants everything with an empty token.
func (r *WeekReserver) Reserve(ctx context.Context, transactionID string, weeks []int, ttl time.Duration) (string, error) {
	if !r.Enabled() || len(weeks) == 0 {
		return "", nil
	}
	if ttl <= 0 {
		return "", errors.New("reservation ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := r.reserve.Run(ctx, r.client, WeekKeys(transactionID, weeks), token, ttl.Milliseconds()).Int()
	if err != nil {
		return "", err
	}
	if ok != 1 {
		return "", ErrWeeksReserved
	}
	return token, nil
}

// Release drops the claims still owned by token.
func (r *WeekReserver) Release(ctx context.Context, transactionID string, weeks []int, token string) error {
	if !r.Enabled() || token == "" || len(weeks) == 0 {
		return nil
	}
	return r.release.Run(ctx, r.client, WeekKeys(transactionID, weeks), token).Err()
}

// ReleaseTransaction drops every claim on a transaction regardless of owner.
func (r *WeekReserver) ReleaseTransaction(ctx context.Context, transactionID string, tenor int) error {
	if !r.Enabled() || tenor <= 0 {
		return nil
	}
	weeks := make([]int, tenor)
	for i := range weeks {
		weeks[i] = i + 1
	}
	return r.client.Del(ctx, WeekKeys(transactionID, weeks)...).Err()
}

// WeekKeys share a hash tag so a multi-key script stays on one cluster slot.
func WeekKeys(transactionID string, weeks []int) []string {
	transactionID = strings.TrimSpace(transactionID)
	keys := make([]string, 0, len(weeks))
	for _, w := range weeks {
		keys = append(keys, fmt.Sprintf(keyWeekReservation, transactionID, w))
	}
	return keys
}
