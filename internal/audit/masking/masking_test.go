package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("1234"))
	assert.Equal(t, "****7890", MaskSecret("1234567890"))
}

func TestMaskSensitive(t *testing.T) {
	accountNumber := "0987654321"
	masked := MaskSensitive(map[string]any{
		"name":           "BCA",
		"account_number": &accountNumber,
		"nested":         map[string]any{"Password": "hunter22", "week": 3},
		"":               "dropped",
	})

	assert.Equal(t, "BCA", masked["name"])
	assert.Equal(t, "****4321", masked["account_number"])
	assert.Equal(t, map[string]any{"Password": "****er22", "week": 3}, masked["nested"])
	assert.NotContains(t, masked, "")
}
