package migration

import (
	"testing"

	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySchemaIsIdempotent(t *testing.T) {
	conn := db.NewTest(t)

	require.NoError(t, ApplySchema(conn))
	require.NoError(t, ApplySchema(conn))

	for _, table := range []string{"users", "sessions", "package_types", "packages", "payment_methods", "transactions", "payments", "payment_weeks", "audit_logs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestPaymentWeeksRejectsDuplicateWeek(t *testing.T) {
	conn := db.NewTest(t)
	require.NoError(t, ApplySchema(conn))

	require.NoError(t, conn.Exec(`INSERT INTO transactions (id, customer_name, reseller_id, reseller_name, reseller_email, package_id, package_name, price_per_week, tenor, is_eligible_bonus, created_at, updated_at)
		VALUES (1, 'Budi', 2, 'Reseller', 'r@example.com', 3, 'Paket', 100000, 4, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO payments (id, transaction_id, amount, week_numbers, payment_method, status, reseller_id, reseller_name, reseller_email, created_at, updated_at)
		VALUES (10, 1, 100000, '[1]', 'cash', 'confirmed', 2, 'Reseller', 'r@example.com', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO payment_weeks (id, transaction_id, payment_id, week_number, created_at) VALUES (100, 1, 10, 1, CURRENT_TIMESTAMP)`).Error)

	err := conn.Exec(`INSERT INTO payment_weeks (id, transaction_id, payment_id, week_number, created_at) VALUES (101, 1, 10, 1, CURRENT_TIMESTAMP)`).Error
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
}

func TestSplitStatementsDropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, splitStatements("SELECT 1;\n\n SELECT 2;\n"))
}
