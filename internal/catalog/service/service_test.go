package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cicilan/internal/catalog/domain"
	"github.com/smallbiznis/cicilan/internal/catalog/repository"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/migration"
	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn := db.NewTest(t)
	require.NoError(t, migration.ApplySchema(conn))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func createType(t *testing.T, svc domain.Service, name string) *domain.PackageType {
	t.Helper()
	item, err := svc.CreatePackageType(context.Background(), domain.PackageTypeRequest{Name: name})
	require.NoError(t, err)
	return item
}

func TestPackageTypeCodeIsSlug(t *testing.T) {
	svc := newTestService(t)

	item := createType(t, svc, "Paket Uang")
	assert.Equal(t, "paket-uang", item.Code)

	_, err := svc.CreatePackageType(context.Background(), domain.PackageTypeRequest{Name: "paket uang"})
	assert.ErrorIs(t, err, domain.ErrPackageTypeExists)

	_, err = svc.CreatePackageType(context.Background(), domain.PackageTypeRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	updated, err := svc.UpdatePackageType(context.Background(), item.ID.String(), domain.PackageTypeRequest{Name: "Paket Sembako", Icon: "basket"})
	require.NoError(t, err)
	assert.Equal(t, "paket-sembako", updated.Code)
	require.NotNil(t, updated.Icon)
}

func TestCreateAndGetPackage(t *testing.T) {
	svc := newTestService(t)
	pkgType := createType(t, svc, "Paket Uang")

	created, err := svc.CreatePackage(context.Background(), domain.PackageRequest{
		PackageTypeID:   pkgType.ID.String(),
		Name:            "Paket Uang 1 Juta",
		Description:     "Tabungan mingguan",
		PricePerWeek:    decimal.RequireFromString("20833.33"),
		Tenor:           48,
		IsEligibleBonus: true,
	})
	require.NoError(t, err)

	got, err := svc.GetPackage(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20833.33").Equal(got.PricePerWeek))
	assert.Equal(t, 48, got.Tenor)
	assert.True(t, got.IsEligibleBonus)
	require.NotNil(t, got.PackageType)
	assert.Equal(t, "paket-uang", got.PackageType.Code)
	assert.True(t, decimal.RequireFromString("999999.84").Equal(got.TotalPrice()))
}

func TestGetPackageNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetPackage(context.Background(), "123456")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)

	_, err = svc.GetPackage(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestCreatePackageValidation(t *testing.T) {
	svc := newTestService(t)
	pkgType := createType(t, svc, "Paket Makanan")
	ctx := context.Background()

	base := domain.PackageRequest{
		PackageTypeID: pkgType.ID.String(),
		Name:          "Sembako",
		PricePerWeek:  decimal.NewFromInt(50000),
		Tenor:         24,
	}

	req := base
	req.Name = ""
	_, err := svc.CreatePackage(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = base
	req.PricePerWeek = decimal.Zero
	_, err = svc.CreatePackage(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPricePerWeek)

	req = base
	req.Tenor = 0
	_, err = svc.CreatePackage(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidTenor)

	req = base
	req.PackageTypeID = "777"
	_, err = svc.CreatePackage(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPackageType)
}

func TestPackageTypeInUseCannotBeDeleted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	pkgType := createType(t, svc, "Paket Makanan")

	pkg, err := svc.CreatePackage(ctx, domain.PackageRequest{
		PackageTypeID: pkgType.ID.String(),
		Name:          "Sembako",
		PricePerWeek:  decimal.NewFromInt(50000),
		Tenor:         24,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeletePackageType(ctx, pkgType.ID.String()), domain.ErrPackageTypeInUse)

	require.NoError(t, svc.DeletePackage(ctx, pkg.ID.String()))
	require.NoError(t, svc.DeletePackageType(ctx, pkgType.ID.String()))
	assert.ErrorIs(t, svc.DeletePackageType(ctx, pkgType.ID.String()), domain.ErrPackageTypeNotFound)
}

func TestListPackagesFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	money := createType(t, svc, "Paket Uang")
	food := createType(t, svc, "Paket Makanan")

	_, err := svc.CreatePackage(ctx, domain.PackageRequest{PackageTypeID: money.ID.String(), Name: "Uang 1 Juta", PricePerWeek: decimal.NewFromInt(20000), Tenor: 50})
	require.NoError(t, err)
	_, err = svc.CreatePackage(ctx, domain.PackageRequest{PackageTypeID: food.ID.String(), Name: "Sembako Lebaran", PricePerWeek: decimal.NewFromInt(50000), Tenor: 24})
	require.NoError(t, err)

	all, err := svc.ListPackages(ctx, domain.ListPackagesRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, item := range all {
		require.NotNil(t, item.PackageType)
	}

	onlyFood, err := svc.ListPackages(ctx, domain.ListPackagesRequest{PackageTypeID: food.ID.String()})
	require.NoError(t, err)
	require.Len(t, onlyFood, 1)
	assert.Equal(t, "Sembako Lebaran", onlyFood[0].Name)

	searched, err := svc.ListPackages(ctx, domain.ListPackagesRequest{Query: "juta"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Uang 1 Juta", searched[0].Name)

	_, err = svc.ListPackages(ctx, domain.ListPackagesRequest{PackageTypeID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPackageType)
}
