package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gymdesk/internal/domain/account"
)

// ErrBadCredentials hides whether the username or the password was wrong.
var ErrBadCredentials = errors.New("invalid username or password")

// LoginInput carries the submitted credentials.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds dependencies for ExecuteLogin.
type LoginDeps struct {
	Accounts AccountStore
}

// ExecuteLogin authenticates a staff account.
// POST: Returns the account without its hash; legacy plaintext records
// are rehashed with bcrypt on first successful login
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Account, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	a, err := deps.Accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, ErrBadCredentials
		}
		return account.Account{}, err
	}

	needsRehash, err := a.CheckPassword(input.Password)
	if err != nil {
		return account.Account{}, ErrBadCredentials
	}
	if needsRehash {
		if err := a.Rehash(input.Password); err != nil {
			slog.Warn("auth_event", "event", "rehash_failed", "username", username, "error", err)
		} else if err := deps.Accounts.Save(ctx, a); err != nil {
			slog.Warn("auth_event", "event", "rehash_save_failed", "username", username, "error", err)
		}
	}

	a.PasswordHash = ""
	return a, nil
}
