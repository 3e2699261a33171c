package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.domain.ng",
		"payer+tag@mail.co",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@nodot",
		"us er@example.com",
		"user@@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.NoError(t, ValidatePassword("Aa1aaaaa"))

	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("ALLUPPERCASE1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+2341234567890"))
	assert.NoError(t, ValidatePhone("14155551234"))

	assert.Error(t, ValidatePhone(""))
	assert.Error(t, ValidatePhone("0123"))
	assert.Error(t, ValidatePhone("+0_not_a_phone"))
}

func TestValidateFullName(t *testing.T) {
	assert.NoError(t, ValidateFullName("Ada Lovelace"))
	assert.Error(t, ValidateFullName(""))
	assert.Error(t, ValidateFullName("A"))
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole("client"))
	assert.NoError(t, ValidateRole("freelancer"))
	assert.Error(t, ValidateRole("superuser"))
	assert.Error(t, ValidateRole(""))
}
