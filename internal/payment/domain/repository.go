package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/ledger"
	"gorm.io/gorm"
)

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Filter struct {
	Status        ledger.PaymentStatus
	ResellerID    snowflake.ID
	TransactionID snowflake.ID
	Cursor        *Cursor
	Limit         int
}

// Transition describes a conditional status change.
type Transition struct {
	ID   snowflake.ID
	From ledger.PaymentStatus
	To   ledger.PaymentStatus
	Note *string
	At   time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, resellerID snowflake.ID, key string) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]Payment, error)
	ListByTransactionIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Payment, error)

	// Transition reports false when the payment is not in the From status.
	Transition(ctx context.Context, db *gorm.DB, t Transition) (bool, error)
	InsertWeeks(ctx context.Context, db *gorm.DB, weeks []PaymentWeek) error
	ConfirmedWeeks(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]int, error)
}
