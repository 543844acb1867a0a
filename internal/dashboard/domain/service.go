package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
	"github.com/smallbiznis/cicilan/internal/ledger"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
)

const (
	SearchAll          = "all"
	SearchPackages     = "packages"
	SearchTransactions = "transactions"
	SearchMembers      = "members"
)

// Stats is the dashboard view. Reseller views are limited to their own data
// and leave TotalResellers and TopResellers empty.
type Stats struct {
	TotalPackages      int64                           `json:"totalPackages"`
	TotalTransactions  int64                           `json:"totalTransactions"`
	TotalResellers     int64                           `json:"totalResellers"`
	PendingPayments    int64                           `json:"pendingPayments"`
	ConfirmedAmount    decimal.Decimal                 `json:"confirmedAmount"`
	RecentTransactions []transactiondomain.Transaction `json:"recentTransactions"`
	PendingReview      []paymentdomain.Payment         `json:"pendingReview"`
	TopResellers       []ResellerTotal                 `json:"topResellers"`
}

type ResellerTotal struct {
	ResellerID       snowflake.ID    `json:"resellerId"`
	ResellerName     string          `json:"resellerName"`
	TransactionCount int64           `json:"transactionCount"`
	ConfirmedAmount  decimal.Decimal `json:"confirmedAmount"`
}

type SearchRequest struct {
	Query string
	Type  string
}

type SearchResult struct {
	Packages     []catalogdomain.Package      `json:"packages"`
	Transactions []transactiondomain.ListItem `json:"transactions"`
	Members      []authdomain.User            `json:"members"`
}

type ReportRequest struct {
	ResellerID string
}

type ReportItem struct {
	transactiondomain.ListItem
	PaymentCount int `json:"paymentCount"`
}

// Report summarises every transaction in scope.
type Report struct {
	Totals              ledger.Totals `json:"totals"`
	TransactionCount    int           `json:"transactionCount"`
	WithPayments        int           `json:"withPayments"`
	WithoutPayments     int           `json:"withoutPayments"`
	PaidOffTransactions int           `json:"paidOffTransactions"`
	Items               []ReportItem  `json:"items"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	Report(ctx context.Context, req ReportRequest) (*Report, error)
}

var (
	ErrInvalidQuery      = errors.New("invalid_query")
	ErrInvalidSearchType = errors.New("invalid_search_type")
	ErrInvalidReseller   = errors.New("invalid_reseller")
)
