package auth

import (
	"errors"
	"fmt"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch is returned when a password does not match its stored hash
	ErrPasswordMismatch = errors.New("incorrect password")
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes
	ErrPasswordTooLong = errors.New("password too long")
)

// PasswordPolicy mirrors the account password rules
type PasswordPolicy struct {
	MinLength        int
	MaxBytes         int // bcrypt only hashes the first 72 bytes and rejects longer input
	RequireDigit     bool
	RequireLowercase bool
	RequireUppercase bool
}

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

// DefaultPasswordPolicy requires 8 characters with a digit, a lowercase and an uppercase letter
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:        8,
	MaxBytes:         MaxPasswordBytes,
	RequireDigit:     true,
	RequireLowercase: true,
	RequireUppercase: true,
}

// Validate returns one human readable message per violated rule
func (p PasswordPolicy) Validate(password string) []string {
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}

	var problems []string
	if len([]rune(password)) < p.MinLength {
		problems = append(problems, fmt.Sprintf("Passwords must be at least %d characters.", p.MinLength))
	}
	if p.MaxBytes > 0 && len(password) > p.MaxBytes {
		problems = append(problems, fmt.Sprintf("Passwords must be at most %d bytes long.", p.MaxBytes))
	}
	if p.RequireDigit && !hasDigit {
		problems = append(problems, "Passwords must have at least one digit ('0'-'9').")
	}
	if p.RequireLowercase && !hasLower {
		problems = append(problems, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if p.RequireUppercase && !hasUpper {
		problems = append(problems, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	return problems
}

// HashPassword salts and hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a password against a bcrypt hash
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// dummyHash is compared against when the account does not exist
var dummyHash = sync.OnceValue(func() []byte {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("no-such-account"), bcrypt.DefaultCost)
	return hashed
})

// CompareWithDummy spends the same bcrypt work as CheckPassword without a real hash
func CompareWithDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}
