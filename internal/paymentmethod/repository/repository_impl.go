package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/paymentmethod/domain"
	"gorm.io/gorm"
)

const columns = `id, name, type, account_number, account_holder, logo, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.PaymentMethod) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_methods (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Name,
		item.Type,
		item.AccountNumber,
		item.AccountHolder,
		item.Logo,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.PaymentMethod) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_methods
		 SET name = ?, type = ?, account_number = ?, account_holder = ?, logo = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name,
		item.Type,
		item.AccountNumber,
		item.AccountHolder,
		item.Logo,
		item.UpdatedAt,
		item.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	res := db.WithContext(ctx).Exec(`DELETE FROM payment_methods WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentMethod, error) {
	var item domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT `+columns+` FROM payment_methods WHERE id = ?`,
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

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.PaymentMethod, error) {
	var items []domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT ` + columns + ` FROM payment_methods ORDER BY name ASC, id ASC`,
	).Scan(&items).Error
	return items, err
}
