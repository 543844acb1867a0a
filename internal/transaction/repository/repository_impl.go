package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/transaction/domain"
	"gorm.io/gorm"
)

const transactionColumns = `id, customer_name, reseller_id, reseller_name, reseller_email,
	package_id, package_name, package_description, price_per_week, tenor,
	is_eligible_bonus, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.CustomerName,
		item.ResellerID,
		item.ResellerName,
		item.ResellerEmail,
		item.PackageID,
		item.PackageName,
		item.PackageDescription,
		item.PricePerWeek,
		item.Tenor,
		item.IsEligibleBonus,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
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

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.Filter) ([]domain.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if filter.ResellerID != 0 {
		where = append(where, "reseller_id = ?")
		args = append(args, filter.ResellerID)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		where = append(where, "(LOWER(customer_name) LIKE ? OR LOWER(package_name) LIKE ? OR LOWER(reseller_name) LIKE ?)")
		args = append(args, like, like, like)
	}
	if filter.Cursor != nil {
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit+1)
	}

	var items []domain.Transaction
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DeleteCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM payment_weeks WHERE transaction_id = ?`, id).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(`DELETE FROM payments WHERE transaction_id = ?`, id).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}
