package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// PaymentMethod is a destination resellers transfer installments to.
type PaymentMethod struct {
	ID            snowflake.ID `json:"id"`
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	AccountNumber *string      `json:"accountNumber,omitempty"`
	AccountHolder *string      `json:"accountHolder,omitempty"`
	Logo          *string      `json:"logo,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

type Request struct {
	Name          string
	Type          string
	AccountNumber string
	AccountHolder string
	Logo          string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *PaymentMethod) error
	Update(ctx context.Context, db *gorm.DB, item *PaymentMethod) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentMethod, error)
	List(ctx context.Context, db *gorm.DB) ([]PaymentMethod, error)
}

type Service interface {
	Create(ctx context.Context, req Request) (*PaymentMethod, error)
	Update(ctx context.Context, id string, req Request) (*PaymentMethod, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*PaymentMethod, error)
	List(ctx context.Context) ([]PaymentMethod, error)
}

var (
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidType = errors.New("invalid_type")
	ErrNotFound    = errors.New("payment_method_not_found")
)
