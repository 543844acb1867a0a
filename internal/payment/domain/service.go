package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
)

type SubmitRequest struct {
	TransactionID  string
	WeekNumbers    []int
	PaymentMethod  string
	Amount         decimal.Decimal
	BankName       string
	ProofImage     string
	Note           string
	IdempotencyKey string
}

type ListRequest struct {
	pagination.Pagination
	Status        string
	ResellerID    string
	TransactionID string
}

type ListResponse struct {
	pagination.PageInfo
	Payments []Payment `json:"payments"`
}

type Receipt struct {
	Filename string
	Content  []byte
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Payment, error)
	Confirm(ctx context.Context, id string) (*Payment, error)
	Reject(ctx context.Context, id string, note string) (*Payment, error)
	Get(ctx context.Context, id string) (*Payment, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Receipt(ctx context.Context, id string) (*Receipt, error)
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidPaymentMethod   = errors.New("invalid_payment_method")
	ErrInvalidPageToken       = errors.New("invalid_page_token")
	ErrPaymentNotFound        = errors.New("payment_not_found")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrWeekAlreadyPaid        = errors.New("week_already_paid")
	ErrWeekReserved           = errors.New("week_reserved")
	ErrRateLimited            = errors.New("rate_limited")
	ErrIdempotencyKeyReused   = errors.New("idempotency_key_reused")
)
