package orchestrators

import (
	"context"
	"log/slog"

	"gymdesk/internal/domain/account"

	"github.com/google/uuid"
)

// ExecuteSeedAdmin creates the initial admin account when the store is
// empty. Idempotent: a populated store is left untouched.
func ExecuteSeedAdmin(ctx context.Context, deps CreateUserDeps, username, password string) error {
	n, err := deps.Accounts.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	a := account.Account{
		ID:        uuid.New().String(),
		Username:  username,
		FullName:  "Administrador",
		Role:      account.RoleAdmin,
		CreatedAt: nowIn(deps.Now),
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if err := a.SetPassword(password); err != nil {
		return err
	}
	if err := deps.Accounts.Save(ctx, a); err != nil {
		return err
	}
	slog.Info("seed_event", "event", "admin_created", "username", username)
	return nil
}
