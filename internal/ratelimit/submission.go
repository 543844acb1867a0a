package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/cicilan/internal/config"
)

const keyPaymentSubmit = "cicilan:submit:reseller:%s"

// SubmissionLimiter throttles payment submissions per reseller.
type SubmissionLimiter struct {
	bucket *TokenBucket
	policy *config.LedgerPolicyHolder
}

func NewSubmissionLimiter(bucket *TokenBucket, policy *config.LedgerPolicyHolder) *SubmissionLimiter {
	return &SubmissionLimiter{bucket: bucket, policy: policy}
}

func (l *SubmissionLimiter) Enabled() bool {
	return l != nil && l.bucket.Enabled()
}

// Allow always admits when Redis is not configured.
func (l *SubmissionLimiter) Allow(ctx context.Context, resellerID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	policy := l.policy.Get()
	key := fmt.Sprintf(keyPaymentSubmit, strings.TrimSpace(resellerID))
	return l.bucket.Allow(ctx, key, float64(policy.SubmitRate), policy.SubmitBurst)
}
