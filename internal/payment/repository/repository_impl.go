package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/ledger"
	"github.com/smallbiznis/cicilan/internal/payment/domain"
	"gorm.io/gorm"
)

const paymentColumns = `id, transaction_id, amount, week_numbers, payment_method, bank_name,
	proof_image, note, status, reseller_id, reseller_name, reseller_email,
	idempotency_key, reservation_token, confirmed_at, rejected_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.TransactionID,
		item.Amount,
		item.WeekNumbers,
		item.PaymentMethod,
		item.BankName,
		item.ProofImage,
		item.Note,
		item.Status,
		item.ResellerID,
		item.ResellerName,
		item.ResellerEmail,
		item.IdempotencyKey,
		item.ReservationToken,
		item.ConfirmedAt,
		item.RejectedAt,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
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

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, resellerID snowflake.ID, key string) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE reseller_id = ? AND idempotency_key = ?`,
		resellerID,
		key,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.Filter) ([]domain.Payment, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.ResellerID != 0 {
		where = append(where, "reseller_id = ?")
		args = append(args, filter.ResellerID)
	}
	if filter.TransactionID != 0 {
		where = append(where, "transaction_id = ?")
		args = append(args, filter.TransactionID)
	}
	if filter.Cursor != nil {
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit+1)
	}

	var items []domain.Payment
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByTransactionIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Payment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 WHERE transaction_id IN ?
		 ORDER BY created_at ASC, id ASC`,
		ids,
	).Scan(&items).Error
	return items, err
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, t domain.Transition) (bool, error) {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{t.To, t.At}
	switch t.To {
	case ledger.StatusConfirmed:
		sets = append(sets, "confirmed_at = ?")
		args = append(args, t.At)
	case ledger.StatusRejected:
		sets = append(sets, "rejected_at = ?")
		args = append(args, t.At)
	}
	if t.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *t.Note)
	}
	args = append(args, t.ID, t.From)

	res := db.WithContext(ctx).Exec(
		`UPDATE payments SET `+strings.Join(sets, ", ")+` WHERE id = ? AND status = ?`,
		args...,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertWeeks(ctx context.Context, db *gorm.DB, weeks []domain.PaymentWeek) error {
	for _, w := range weeks {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO payment_weeks (id, transaction_id, payment_id, week_number, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			w.ID,
			w.TransactionID,
			w.PaymentID,
			w.WeekNumber,
			w.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ConfirmedWeeks(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]int, error) {
	var weeks []int
	err := db.WithContext(ctx).Raw(
		`SELECT week_number FROM payment_weeks WHERE transaction_id = ? ORDER BY week_number`,
		transactionID,
	).Scan(&weeks).Error
	return weeks, err
}
