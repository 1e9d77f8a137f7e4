package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		expected []string
	}{
		{name: "compliant", password: "Secret123", expected: nil},
		{name: "too short", password: "Ab1", expected: []string{"Passwords must be at least 8 characters."}},
		{name: "no digit", password: "SecretPass", expected: []string{"Passwords must have at least one digit ('0'-'9')."}},
		{name: "no lowercase", password: "SECRET123", expected: []string{"Passwords must have at least one lowercase ('a'-'z')."}},
		{name: "no uppercase", password: "secret123", expected: []string{"Passwords must have at least one uppercase ('A'-'Z')."}},
		{name: "longer than bcrypt accepts", password: "Aa1" + strings.Repeat("x", 80), expected: []string{"Passwords must be at most 72 bytes long."}},
		{name: "exactly 72 bytes", password: "Aa1" + strings.Repeat("x", 69), expected: nil},
		{
			name:     "everything wrong",
			password: "",
			expected: []string{
				"Passwords must be at least 8 characters.",
				"Passwords must have at least one digit ('0'-'9').",
				"Passwords must have at least one lowercase ('a'-'z').",
				"Passwords must have at least one uppercase ('A'-'Z').",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DefaultPasswordPolicy.Validate(tc.password))
		})
	}
}

func TestHashPassword_IsSaltedAndVerifiable(t *testing.T) {
	first, err := HashPassword("Secret123")
	require.NoError(t, err)
	second, err := HashPassword("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "Secret123", first, "hash must never be the plaintext")
	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.NoError(t, CheckPassword(first, "Secret123"))
	assert.ErrorIs(t, CheckPassword(first, "Wrong123"), ErrPasswordMismatch)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword("Aa1" + strings.Repeat("x", 80))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCompareWithDummy_UsesDefaultCost(t *testing.T) {
	CompareWithDummy("anything")

	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
