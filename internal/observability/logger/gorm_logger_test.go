package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("  select * from payments"))
	assert.Equal(t, "UPDATE", operationFromSQL("WITH x AS (SELECT 1) UPDATE payments SET status = 'confirmed'"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "payments", tableFromSQL(`SELECT id FROM payments WHERE id = ?`))
	assert.Equal(t, "payment_weeks", tableFromSQL(`INSERT INTO "payment_weeks" (id) VALUES (?)`))
	assert.Equal(t, "transactions", tableFromSQL(`UPDATE transactions SET customer_name = ?`))
	assert.Equal(t, "unknown", tableFromSQL(`SELECT 1`))
}
