package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"ivan.petrov+tag@mail.ru",
		"a@b.co",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"plain",
		"@example.com",
		"user@",
		"user@@example.com",
		"user@localhost",
		"пользователь@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ivan_petrov"))
	assert.NoError(t, ValidateUsername("user123"))

	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("ivan petrov"))
	assert.Error(t, ValidateUsername("ivan-petrov"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 31)))
}

func TestValidateLength_CountsRunes(t *testing.T) {
	// Кириллица: 5 рун, 10 байт.
	assert.NoError(t, ValidateLength("поле", "привет", 3, 10))
	assert.Error(t, ValidateLength("поле", "аб", 3, 10))
	assert.Error(t, ValidateLength("поле", strings.Repeat("я", 11), 3, 10))
}

func TestValidateBudget(t *testing.T) {
	assert.NoError(t, ValidateBudget(100, 100))
	assert.Error(t, ValidateBudget(99, 100))
	assert.Error(t, ValidateBudget(MaxBudget+1, 100))
}

func TestValidateCoordinates(t *testing.T) {
	lat, lng := 55.75, 37.61
	badLat, badLng := 91.0, 181.0

	assert.NoError(t, ValidateCoordinates(nil, nil))
	assert.NoError(t, ValidateCoordinates(&lat, &lng))

	assert.Error(t, ValidateCoordinates(&lat, nil))
	assert.Error(t, ValidateCoordinates(nil, &lng))
	assert.Error(t, ValidateCoordinates(&badLat, &lng))
	assert.Error(t, ValidateCoordinates(&lat, &badLng))
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("привет", 100))
	assert.Error(t, ValidateMessageContent("", 100))
	assert.Error(t, ValidateMessageContent("   ", 100))
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", 101), 100))
}
