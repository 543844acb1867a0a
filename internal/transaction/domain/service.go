package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/cicilan/pkg/db/pagination"
)

type CreateRequest struct {
	PackageID    string
	CustomerName string
	// ResellerID is honoured for admins only; resellers always sell for themselves.
	ResellerID string
}

type ListRequest struct {
	pagination.Pagination
	ResellerID string
	Query      string
}

type ListResponse struct {
	pagination.PageInfo
	Transactions []ListItem `json:"transactions"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Transaction, error)
	Get(ctx context.Context, id string) (*Detail, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidCustomerName = errors.New("invalid_customer_name")
	ErrInvalidReseller     = errors.New("invalid_reseller")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrTransactionNotFound = errors.New("transaction_not_found")
)
