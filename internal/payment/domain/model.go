package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cicilan/internal/ledger"
	"gorm.io/datatypes"
)

// Payment is one reseller submission covering one or more weeks of a
// transaction. Only process payments change state.
type Payment struct {
	ID               snowflake.ID             `json:"id"`
	TransactionID    snowflake.ID             `json:"transactionId"`
	Amount           decimal.Decimal          `json:"amount"`
	WeekNumbers      datatypes.JSONSlice[int] `json:"weekNumbers"`
	PaymentMethod    string                   `json:"paymentMethod"`
	BankName         *string                  `json:"bankName,omitempty"`
	ProofImage       *string                  `json:"proofImage,omitempty"`
	Note             *string                  `json:"note,omitempty"`
	Status           ledger.PaymentStatus     `json:"status"`
	ResellerID       snowflake.ID             `json:"resellerId"`
	ResellerName     string                   `json:"resellerName"`
	ResellerEmail    string                   `json:"resellerEmail"`
	IdempotencyKey   *string                  `json:"idempotencyKey,omitempty"`
	ReservationToken *string                  `json:"-"`
	ConfirmedAt      *time.Time               `json:"confirmedAt,omitempty"`
	RejectedAt       *time.Time               `json:"rejectedAt,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

func (p Payment) Entry() ledger.Entry {
	return ledger.Entry{Status: p.Status, Amount: p.Amount, Weeks: []int(p.WeekNumbers)}
}

// Entries adapts payments for ledger.Aggregate.
func Entries(payments []Payment) []ledger.Entry {
	out := make([]ledger.Entry, 0, len(payments))
	for _, p := range payments {
		out = append(out, p.Entry())
	}
	return out
}

// PaymentWeek records that a week of a transaction is covered by a confirmed
// payment. (transaction_id, week_number) is unique.
type PaymentWeek struct {
	ID            snowflake.ID
	TransactionID snowflake.ID
	PaymentID     snowflake.ID
	WeekNumber    int
	CreatedAt     time.Time
}

func (PaymentWeek) TableName() string { return "payment_weeks" }
