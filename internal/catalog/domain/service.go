package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type PackageTypeRequest struct {
	Name string
	Icon string
}

type PackageRequest struct {
	PackageTypeID   string
	Name            string
	Description     string
	PricePerWeek    decimal.Decimal
	Tenor           int
	IsEligibleBonus bool
	Photo           string
}

type ListPackagesRequest struct {
	PackageTypeID string
	Query         string
}

type Service interface {
	CreatePackageType(ctx context.Context, req PackageTypeRequest) (*PackageType, error)
	UpdatePackageType(ctx context.Context, id string, req PackageTypeRequest) (*PackageType, error)
	DeletePackageType(ctx context.Context, id string) error
	GetPackageType(ctx context.Context, id string) (*PackageType, error)
	ListPackageTypes(ctx context.Context) ([]PackageType, error)

	GetPackage(ctx context.Context, id string) (*Package, error)
	CreatePackage(ctx context.Context, req PackageRequest) (*Package, error)
	UpdatePackage(ctx context.Context, id string, req PackageRequest) (*Package, error)
	DeletePackage(ctx context.Context, id string) error
	ListPackages(ctx context.Context, req ListPackagesRequest) ([]Package, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidPricePerWeek = errors.New("invalid_price_per_week")
	ErrInvalidTenor        = errors.New("invalid_tenor")
	ErrInvalidPackageType  = errors.New("invalid_package_type")
	ErrPackageNotFound     = errors.New("package_not_found")
	ErrPackageTypeNotFound = errors.New("package_type_not_found")
	ErrPackageTypeExists   = errors.New("package_type_exists")
	ErrPackageTypeInUse    = errors.New("package_type_in_use")
)
