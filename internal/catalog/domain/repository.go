package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type PackageFilter struct {
	PackageTypeID snowflake.ID
	Query         string
}

type Repository interface {
	InsertType(ctx context.Context, db *gorm.DB, item *PackageType) error
	UpdateType(ctx context.Context, db *gorm.DB, item *PackageType) error
	DeleteType(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindTypeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PackageType, error)
	FindTypeByCode(ctx context.Context, db *gorm.DB, code string) (*PackageType, error)
	ListTypes(ctx context.Context, db *gorm.DB) ([]PackageType, error)
	CountPackagesByType(ctx context.Context, db *gorm.DB, typeID snowflake.ID) (int64, error)

	InsertPackage(ctx context.Context, db *gorm.DB, item *Package) error
	UpdatePackage(ctx context.Context, db *gorm.DB, item *Package) error
	DeletePackage(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindPackageByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Package, error)
	ListPackages(ctx context.Context, db *gorm.DB, filter PackageFilter) ([]Package, error)
}
