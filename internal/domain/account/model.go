package account

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxUsernameLength = 64
	MinPasswordLength = 8
)

// Role constants
const (
	RoleAdmin    = "admin"
	RoleEmployee = "empleado"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleEmployee}

// Domain errors
var (
	ErrEmptyUsername   = errors.New("username cannot be empty")
	ErrUsernameTooLong = errors.New("username cannot exceed 64 characters")
	ErrInvalidRole     = errors.New("role must be one of: admin, empleado")
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrWeakPassword    = errors.New("password must be at least 8 characters and include upper case, lower case, a digit and a symbol")
	ErrWrongPassword   = errors.New("incorrect password")
	ErrDuplicateUser   = errors.New("username already exists")
	ErrNotFound        = errors.New("account not found")
	ErrSelfDelete      = errors.New("cannot delete your own account")
	ErrLastAdmin       = errors.New("cannot delete the last admin account")
)

// Account holds one staff login. PasswordHash is bcrypt, except for records
// migrated from the legacy plaintext store, which are rehashed on first
// successful login.
type Account struct {
	ID           string
	Username     string
	FullName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return ErrEmptyUsername
	}
	if len(a.Username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !isValidRole(a.Role) {
		return ErrInvalidRole
	}
	return nil
}

// CheckPasswordStrength enforces the staff password policy.
// POST: Returns nil when plaintext has length >= 8 with upper, lower,
// digit and symbol characters
func CheckPasswordStrength(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrWeakPassword
	}
	var upper, lower, digit, symbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext satisfies CheckPasswordStrength
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if err := CheckPasswordStrength(plaintext); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// Rehash replaces a legacy plaintext credential with its bcrypt hash. The
// strength policy does not apply here; it gates new passwords only, and a
// weak legacy password must still migrate off plaintext.
// PRE: plaintext just passed CheckPassword
// POST: PasswordHash is a bcrypt hash of plaintext
func (a *Account) Rehash(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// Legacy records hold the plaintext itself instead of a bcrypt hash; those
// compare by equality and report needsRehash so the caller can migrate them.
// PRE: PasswordHash is set
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) (needsRehash bool, err error) {
	if a.PasswordHash == "" {
		return false, ErrWrongPassword
	}
	if isBcryptHash(a.PasswordHash) {
		if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) != nil {
			return false, ErrWrongPassword
		}
		return false, nil
	}
	if a.PasswordHash != plaintext {
		return false, ErrWrongPassword
	}
	return true, nil
}

// IsAdmin returns true if the account has admin role.
// INVARIANT: Account fields are not mutated
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
