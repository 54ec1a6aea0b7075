package orchestrators

import (
	"context"
	"strings"
	"time"

	accountStore "gymdesk/internal/adapters/storage/account"
	"gymdesk/internal/domain/account"

	"github.com/google/uuid"
)

// CreateUserInput carries input for staff account creation.
type CreateUserInput struct {
	Username string
	FullName string
	Password string
	Role     string
}

// CreateUserDeps holds dependencies for ExecuteCreateUser.
type CreateUserDeps struct {
	Accounts AccountStore
	Now      func() time.Time
}

// ExecuteCreateUser registers a staff account with a bcrypt-hashed password.
// PRE: Password meets the strength policy
// POST: Account persisted with a fresh UUID; plaintext never stored
func ExecuteCreateUser(ctx context.Context, input CreateUserInput, deps CreateUserDeps) (account.Account, error) {
	a := account.Account{
		ID:        uuid.New().String(),
		Username:  strings.ToLower(strings.TrimSpace(input.Username)),
		FullName:  strings.TrimSpace(input.FullName),
		Role:      input.Role,
		CreatedAt: nowIn(deps.Now),
	}
	if err := a.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := account.CheckPasswordStrength(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := a.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := deps.Accounts.Save(ctx, a); err != nil {
		return account.Account{}, err
	}
	a.PasswordHash = ""
	return a, nil
}

// DeleteUserInput names the account to remove and who is asking.
type DeleteUserInput struct {
	ID      string
	ActorID string
}

// DeleteUserDeps holds dependencies for ExecuteDeleteUser.
type DeleteUserDeps struct {
	Accounts AccountStore
}

// ExecuteDeleteUser removes a staff account.
// INVARIANT: An admin can never delete itself or the last admin account
func ExecuteDeleteUser(ctx context.Context, input DeleteUserInput, deps DeleteUserDeps) error {
	if input.ID == input.ActorID {
		return account.ErrSelfDelete
	}
	a, err := deps.Accounts.GetByID(ctx, input.ID)
	if err != nil {
		return err
	}
	if a.IsAdmin() {
		admins, err := deps.Accounts.CountByRole(ctx, account.RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return account.ErrLastAdmin
		}
	}
	return deps.Accounts.Delete(ctx, input.ID)
}

// ListUsersDeps holds dependencies for QueryListUsers.
type ListUsersDeps struct {
	Accounts AccountStore
}

// QueryListUsers returns all staff accounts with password hashes stripped.
func QueryListUsers(ctx context.Context, deps ListUsersDeps) ([]account.Account, error) {
	accounts, err := deps.Accounts.List(ctx, accountStore.ListFilter{})
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i].PasswordHash = ""
	}
	return accounts, nil
}
