package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLedgerPolicyIsValid(t *testing.T) {
	policy := DefaultLedgerPolicy()
	require.NoError(t, validateLedgerPolicy(policy))
	assert.Equal(t, "Pembayaran ditolak oleh admin", policy.RejectNote)
}

func TestValidateLedgerPolicyRejectsBrokenValues(t *testing.T) {
	cases := map[string]func(p *LedgerPolicy){
		"empty note":     func(p *LedgerPolicy) { p.RejectNote = "  " },
		"zero ttl":       func(p *LedgerPolicy) { p.ReservationTTL = 0 },
		"zero max weeks": func(p *LedgerPolicy) { p.MaxWeeksPerSubmit = 0 },
		"zero burst":     func(p *LedgerPolicy) { p.SubmitBurst = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			policy := DefaultLedgerPolicy()
			mutate(&policy)
			assert.Error(t, validateLedgerPolicy(policy))
		})
	}
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *LedgerPolicyHolder
	assert.Equal(t, DefaultLedgerPolicy(), holder.Get())

	custom := DefaultLedgerPolicy()
	custom.ReservationTTL = time.Hour
	assert.Equal(t, time.Hour, NewStaticLedgerPolicyHolder(custom).Get().ReservationTTL)
}
