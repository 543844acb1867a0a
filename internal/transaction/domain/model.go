package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cicilan/internal/ledger"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
)

// Transaction registers a customer against a package. The package terms are
// copied at creation and never change afterwards, even if the package does.
type Transaction struct {
	ID                 snowflake.ID    `json:"id"`
	CustomerName       string          `json:"customerName"`
	ResellerID         snowflake.ID    `json:"resellerId"`
	ResellerName       string          `json:"resellerName"`
	ResellerEmail      string          `json:"resellerEmail"`
	PackageID          snowflake.ID    `json:"packageId"`
	PackageName        string          `json:"packageName"`
	PackageDescription *string         `json:"packageDescription,omitempty"`
	PricePerWeek       decimal.Decimal `json:"pricePerWeek"`
	Tenor              int             `json:"tenor"`
	IsEligibleBonus    bool            `json:"isEligibleBonus"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (Transaction) TableName() string { return "transactions" }

func (t Transaction) Terms() ledger.Terms {
	return ledger.Terms{PricePerWeek: t.PricePerWeek, Tenor: t.Tenor}
}

// Summarize folds payments belonging to t into its ledger summary.
func (t Transaction) Summarize(payments []paymentdomain.Payment) ledger.Summary {
	return ledger.Aggregate(t.Terms(), paymentdomain.Entries(payments))
}

type Detail struct {
	Transaction
	Summary  ledger.Summary          `json:"summary"`
	Payments []paymentdomain.Payment `json:"payments"`
}

type ListItem struct {
	Transaction
	Summary ledger.Summary `json:"summary"`
}
