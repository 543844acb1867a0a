package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PackageType struct {
	ID        snowflake.ID `json:"id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Icon      *string      `json:"icon,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (PackageType) TableName() string { return "package_types" }

// Package is a sellable installment plan. Transactions copy its terms at creation.
type Package struct {
	ID              snowflake.ID    `json:"id"`
	PackageTypeID   snowflake.ID    `json:"packageTypeId"`
	Name            string          `json:"name"`
	Description     *string         `json:"description,omitempty"`
	PricePerWeek    decimal.Decimal `json:"pricePerWeek"`
	Tenor           int             `json:"tenor"`
	IsEligibleBonus bool            `json:"isEligibleBonus"`
	Photo           *string         `json:"photo,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	PackageType *PackageType `json:"packageType,omitempty" gorm:"-"`
}

func (Package) TableName() string { return "packages" }

// TotalPrice is the price of the full tenor.
func (p Package) TotalPrice() decimal.Decimal {
	return p.PricePerWeek.Mul(decimal.NewFromInt(int64(p.Tenor)))
}
