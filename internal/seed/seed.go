package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/auth/password"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
	paymentmethoddomain "github.com/smallbiznis/cicilan/internal/paymentmethod/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail       = "admin@example.com"
	defaultAdminPassword    = "admin123"
	defaultAdminName        = "Administrator"
	defaultResellerEmail    = "reseller@example.com"
	defaultResellerPassword = "reseller123"
	defaultResellerName     = "Reseller Demo"
)

type Options struct {
	AdminEmail    string
	AdminPassword string
	NodeID        int64
}

type packageSeed struct {
	typeCode    string
	name        string
	description string
	price       string
	tenor       int
	bonus       bool
}

var (
	packageTypes = []catalogdomain.PackageType{
		{Code: "paket-uang", Name: "Paket Uang"},
		{Code: "paket-makanan", Name: "Paket Makanan"},
	}

	packages = []packageSeed{
		{
			typeCode:    "paket-uang",
			name:        "Paket Uang 1 Juta",
			description: "Tabungan uang tunai Rp 1.000.000 selama 48 minggu",
			price:       "20833.33",
			tenor:       48,
			bonus:       true,
		},
		{
			typeCode:    "paket-makanan",
			name:        "Paket Sembako Lebaran",
			description: "Paket sembako lengkap menjelang hari raya",
			price:       "50000",
			tenor:       24,
		},
	}

	paymentMethods = []paymentmethoddomain.PaymentMethod{
		{Name: "Transfer BCA", Type: "bank"},
		{Name: "Transfer BRI", Type: "bank"},
		{Name: "Tunai", Type: "cash"},
	}
)

// Run inserts the bootstrap users, catalog and payment methods. Rows that
// already exist are left alone, so Run is safe on every start.
func Run(ctx context.Context, db *gorm.DB, opts Options) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	nodeID := opts.NodeID
	if nodeID <= 0 {
		nodeID = 1
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}

	adminEmail := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}
	adminPassword := opts.AdminPassword
	if strings.TrimSpace(adminPassword) == "" {
		adminPassword = defaultAdminPassword
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(ctx, tx, node, adminEmail, defaultAdminName, adminPassword, authdomain.RoleAdmin); err != nil {
			return err
		}
		if err := ensureUser(ctx, tx, node, defaultResellerEmail, defaultResellerName, defaultResellerPassword, authdomain.RoleReseller); err != nil {
			return err
		}

		typeIDs := make(map[string]snowflake.ID, len(packageTypes))
		for _, pt := range packageTypes {
			id, err := ensurePackageType(ctx, tx, node, pt)
			if err != nil {
				return err
			}
			typeIDs[pt.Code] = id
		}
		for _, p := range packages {
			if err := ensurePackage(ctx, tx, node, typeIDs[p.typeCode], p); err != nil {
				return err
			}
		}
		for _, m := range paymentMethods {
			if err := ensurePaymentMethod(ctx, tx, node, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureUser(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, name, plain, role string) error {
	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hashed,
		IsDefault:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&user).Error
}

func ensurePackageType(ctx context.Context, tx *gorm.DB, node *snowflake.Node, seed catalogdomain.PackageType) (snowflake.ID, error) {
	var existing catalogdomain.PackageType
	err := tx.WithContext(ctx).Where("code = ?", seed.Code).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	now := time.Now().UTC()
	seed.ID = node.Generate()
	seed.CreatedAt = now
	seed.UpdatedAt = now
	if err := tx.WithContext(ctx).Create(&seed).Error; err != nil {
		return 0, err
	}
	return seed.ID, nil
}

func ensurePackage(ctx context.Context, tx *gorm.DB, node *snowflake.Node, typeID snowflake.ID, seed packageSeed) error {
	var existing catalogdomain.Package
	err := tx.WithContext(ctx).Where("name = ?", seed.name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	description := seed.description
	now := time.Now().UTC()
	item := catalogdomain.Package{
		ID:              node.Generate(),
		PackageTypeID:   typeID,
		Name:            seed.name,
		Description:     &description,
		PricePerWeek:    decimal.RequireFromString(seed.price),
		Tenor:           seed.tenor,
		IsEligibleBonus: seed.bonus,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return tx.WithContext(ctx).Create(&item).Error
}

func ensurePaymentMethod(ctx context.Context, tx *gorm.DB, node *snowflake.Node, seed paymentmethoddomain.PaymentMethod) error {
	var existing paymentmethoddomain.PaymentMethod
	err := tx.WithContext(ctx).Where("name = ?", seed.Name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	seed.ID = node.Generate()
	seed.CreatedAt = now
	seed.UpdatedAt = now
	return tx.WithContext(ctx).Create(&seed).Error
}
