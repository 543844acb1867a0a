package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Filter struct {
	ResellerID snowflake.ID
	Query      string
	Cursor     *Cursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]Transaction, error)

	// DeleteCascade removes payment weeks, payments and the transaction.
	// Callers run it inside a database transaction.
	DeleteCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
