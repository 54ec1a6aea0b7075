package account_test

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"gymdesk/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr bool
	}{
		{
			name: "valid admin account",
			account: account.Account{
				ID:       "1",
				Username: "admin",
				Role:     account.RoleAdmin,
			},
			wantErr: false,
		},
		{
			name: "valid employee account",
			account: account.Account{
				ID:       "2",
				Username: "recepcion",
				Role:     account.RoleEmployee,
			},
			wantErr: false,
		},
		{
			name: "empty username",
			account: account.Account{
				ID:   "3",
				Role: account.RoleAdmin,
			},
			wantErr: true,
		},
		{
			name: "invalid role",
			account: account.Account{
				ID:       "4",
				Username: "user",
				Role:     "superadmin",
			},
			wantErr: true,
		},
		{
			name: "empty role",
			account: account.Account{
				ID:       "5",
				Username: "user",
				Role:     "",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Account.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestCheckPasswordStrength tests the staff password policy.
func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Segura.123", false},
		{"exactly 8 chars", "Aa1!Aa1!", false},
		{"empty password", "", true},
		{"too short", "Aa1!", true},
		{"no upper case", "segura.123", true},
		{"no lower case", "SEGURA.123", true},
		{"no digit", "Segura.abc", true},
		{"no symbol", "Segura123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.CheckPasswordStrength(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPasswordStrength() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_SetPassword tests the SetPassword method.
func TestAccount_SetPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Segura.123", false},
		{"empty password", "", true},
		{"weak password", "password", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &account.Account{}
			err := a.SetPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && a.PasswordHash == "" {
				t.Error("SetPassword() should set PasswordHash")
			}
			if err == nil && a.PasswordHash == tt.password {
				t.Error("SetPassword() should hash the password, not store plaintext")
			}
		})
	}
}

// TestAccount_Rehash tests the legacy migration path.
func TestAccount_Rehash(t *testing.T) {
	a := &account.Account{PasswordHash: "admin"}
	if err := a.Rehash("admin"); err != nil {
		t.Fatalf("Rehash() failed: %v", err)
	}
	if a.PasswordHash == "admin" {
		t.Error("Rehash() should replace the plaintext credential")
	}
	needsRehash, err := a.CheckPassword("admin")
	if err != nil {
		t.Errorf("CheckPassword() after rehash failed: %v", err)
	}
	if needsRehash {
		t.Error("CheckPassword() should not request a second rehash")
	}
}

// TestAccount_CheckPassword tests the CheckPassword method.
func TestAccount_CheckPassword(t *testing.T) {
	a := &account.Account{}
	if err := a.SetPassword("Segura.123"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"correct password", "Segura.123", false},
		{"wrong password", "Insegura.123", true},
		{"empty password", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needsRehash, err := a.CheckPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if needsRehash {
				t.Error("CheckPassword() should not request rehash for bcrypt hashes")
			}
		})
	}
}

// TestAccount_CheckPassword_Legacy tests the legacy plaintext path.
func TestAccount_CheckPassword_Legacy(t *testing.T) {
	a := &account.Account{PasswordHash: "1234"}

	needsRehash, err := a.CheckPassword("1234")
	if err != nil {
		t.Fatalf("CheckPassword() error = %v", err)
	}
	if !needsRehash {
		t.Error("legacy plaintext match should request rehash")
	}

	if _, err := a.CheckPassword("wrong"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword() error = %v, want ErrWrongPassword", err)
	}
}

// TestAccount_CheckPassword_NoHash tests CheckPassword with no hash set.
func TestAccount_CheckPassword_NoHash(t *testing.T) {
	a := &account.Account{}
	if _, err := a.CheckPassword("anypassword"); err == nil {
		t.Error("CheckPassword() should fail when no hash is set")
	}
}

// TestAccount_IsAdmin tests the IsAdmin method.
func TestAccount_IsAdmin(t *testing.T) {
	tests := []struct {
		role    string
		isAdmin bool
	}{
		{account.RoleAdmin, true},
		{account.RoleEmployee, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			a := &account.Account{Role: tt.role}
			if a.IsAdmin() != tt.isAdmin {
				t.Errorf("IsAdmin() = %v, want %v", a.IsAdmin(), tt.isAdmin)
			}
		})
	}
}

// TestBcryptDetection verifies migrated hashes stop comparing as plaintext.
func TestBcryptDetection(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Segura.123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	a := &account.Account{PasswordHash: string(hash)}
	if _, err := a.CheckPassword(string(hash)); err == nil {
		t.Error("hash value itself must not authenticate")
	}
	if _, err := a.CheckPassword("Segura.123"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
}
