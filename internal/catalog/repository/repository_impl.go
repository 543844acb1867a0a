package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/catalog/domain"
	"gorm.io/gorm"
)

const typeColumns = `id, code, name, icon, created_at, updated_at`

const packageColumns = `id, package_type_id, name, description, price_per_week, tenor,
	is_eligible_bonus, photo, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertType(ctx context.Context, db *gorm.DB, item *domain.PackageType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO package_types (`+typeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Code,
		item.Name,
		item.Icon,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) UpdateType(ctx context.Context, db *gorm.DB, item *domain.PackageType) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE package_types SET code = ?, name = ?, icon = ?, updated_at = ? WHERE id = ?`,
		item.Code,
		item.Name,
		item.Icon,
		item.UpdatedAt,
		item.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPackageTypeNotFound
	}
	return nil
}

func (r *repo) DeleteType(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	res := db.WithContext(ctx).Exec(`DELETE FROM package_types WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPackageTypeNotFound
	}
	return nil
}

func (r *repo) FindTypeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PackageType, error) {
	var item domain.PackageType
	err := db.WithContext(ctx).Raw(
		`SELECT `+typeColumns+` FROM package_types WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindTypeByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PackageType, error) {
	var item domain.PackageType
	err := db.WithContext(ctx).Raw(
		`SELECT `+typeColumns+` FROM package_types WHERE code = ?`,
		code,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListTypes(ctx context.Context, db *gorm.DB) ([]domain.PackageType, error) {
	var items []domain.PackageType
	err := db.WithContext(ctx).Raw(
		`SELECT ` + typeColumns + ` FROM package_types ORDER BY name ASC, id ASC`,
	).Scan(&items).Error
	return items, err
}

func (r *repo) CountPackagesByType(ctx context.Context, db *gorm.DB, typeID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM packages WHERE package_type_id = ?`,
		typeID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) InsertPackage(ctx context.Context, db *gorm.DB, item *domain.Package) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO packages (`+packageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.PackageTypeID,
		item.Name,
		item.Description,
		item.PricePerWeek,
		item.Tenor,
		item.IsEligibleBonus,
		item.Photo,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) UpdatePackage(ctx context.Context, db *gorm.DB, item *domain.Package) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE packages
		 SET package_type_id = ?, name = ?, description = ?, price_per_week = ?, tenor = ?,
		     is_eligible_bonus = ?, photo = ?, updated_at = ?
		 WHERE id = ?`,
		item.PackageTypeID,
		item.Name,
		item.Description,
		item.PricePerWeek,
		item.Tenor,
		item.IsEligibleBonus,
		item.Photo,
		item.UpdatedAt,
		item.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func (r *repo) DeletePackage(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	res := db.WithContext(ctx).Exec(`DELETE FROM packages WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func (r *repo) FindPackageByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Package, error) {
	var item domain.Package
	err := db.WithContext(ctx).Raw(
		`SELECT `+packageColumns+` FROM packages WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListPackages(ctx context.Context, db *gorm.DB, filter domain.PackageFilter) ([]domain.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE 1 = 1`
	args := []any{}
	if filter.PackageTypeID != 0 {
		query += ` AND package_type_id = ?`
		args = append(args, filter.PackageTypeID)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query += ` AND (LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)`
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var items []domain.Package
	err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error
	return items, err
}
