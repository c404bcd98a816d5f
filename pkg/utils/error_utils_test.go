package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"jana@example.com",
		"Jana.Novakova+orders@bistro.sk",
		"objednavky@pcbbistro.online",
		"hello@kitchen.agency",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"jana@",
		"@bistro.sk",
		"jana@bistro",
		"jana@bistro.s",
		"jana novakova@bistro.sk",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}
