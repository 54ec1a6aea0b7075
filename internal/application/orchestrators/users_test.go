package orchestrators

import (
	"context"
	"errors"
	"testing"

	"gymdesk/internal/domain/account"
)

func TestExecuteCreateUser(t *testing.T) {
	store := newStubAccounts()
	input := CreateUserInput{
		Username: "  Ana  ",
		FullName: "Ana López",
		Password: "Str0ng!pass",
		Role:     account.RoleEmployee,
	}

	a, err := ExecuteCreateUser(context.Background(), input, CreateUserDeps{Accounts: store, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Error("expected a generated ID")
	}
	if a.Username != "ana" {
		t.Errorf("expected lowercased username, got %q", a.Username)
	}
	if a.PasswordHash != "" {
		t.Error("returned account must not expose the hash")
	}

	stored := store.accounts[a.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "Str0ng!pass" {
		t.Error("stored password must be hashed")
	}
}

func TestExecuteCreateUser_WeakPassword(t *testing.T) {
	store := newStubAccounts()
	input := CreateUserInput{Username: "ana", FullName: "Ana", Password: "short", Role: account.RoleAdmin}

	_, err := ExecuteCreateUser(context.Background(), input, CreateUserDeps{Accounts: store, Now: fixedNow})
	if !errors.Is(err, account.ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if len(store.accounts) != 0 {
		t.Error("rejected account must not be stored")
	}
}

func TestExecuteCreateUser_BadRole(t *testing.T) {
	store := newStubAccounts()
	input := CreateUserInput{Username: "ana", FullName: "Ana", Password: "Str0ng!pass", Role: "superuser"}

	_, err := ExecuteCreateUser(context.Background(), input, CreateUserDeps{Accounts: store, Now: fixedNow})
	if !errors.Is(err, account.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestExecuteDeleteUser_SelfDelete(t *testing.T) {
	store := newStubAccounts(account.Account{ID: "u1", Username: "ana", Role: account.RoleAdmin})

	err := ExecuteDeleteUser(context.Background(), DeleteUserInput{ID: "u1", ActorID: "u1"}, DeleteUserDeps{Accounts: store})
	if !errors.Is(err, account.ErrSelfDelete) {
		t.Errorf("expected ErrSelfDelete, got %v", err)
	}
}

func TestExecuteDeleteUser_LastAdmin(t *testing.T) {
	store := newStubAccounts(
		account.Account{ID: "u1", Username: "ana", Role: account.RoleAdmin},
		account.Account{ID: "u2", Username: "luis", Role: account.RoleEmployee},
	)

	err := ExecuteDeleteUser(context.Background(), DeleteUserInput{ID: "u1", ActorID: "u2"}, DeleteUserDeps{Accounts: store})
	if !errors.Is(err, account.ErrLastAdmin) {
		t.Errorf("expected ErrLastAdmin, got %v", err)
	}
}

func TestExecuteDeleteUser_SecondAdminRemovable(t *testing.T) {
	store := newStubAccounts(
		account.Account{ID: "u1", Username: "ana", Role: account.RoleAdmin},
		account.Account{ID: "u2", Username: "eva", Role: account.RoleAdmin},
	)

	if err := ExecuteDeleteUser(context.Background(), DeleteUserInput{ID: "u2", ActorID: "u1"}, DeleteUserDeps{Accounts: store}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "u2" {
		t.Errorf("expected u2 deleted, got %v", store.deleted)
	}
}

func TestExecuteDeleteUser_NotFound(t *testing.T) {
	store := newStubAccounts()

	err := ExecuteDeleteUser(context.Background(), DeleteUserInput{ID: "ghost", ActorID: "u1"}, DeleteUserDeps{Accounts: store})
	if !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteSeedAdmin(t *testing.T) {
	store := newStubAccounts()
	deps := CreateUserDeps{Accounts: store, Now: fixedNow}

	if err := ExecuteSeedAdmin(context.Background(), deps, "admin", "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(store.accounts))
	}
	for _, a := range store.accounts {
		if a.Role != account.RoleAdmin || a.Username != "admin" {
			t.Errorf("unexpected seeded account %+v", a)
		}
	}

	// Populated store: no-op even with a different username.
	if err := ExecuteSeedAdmin(context.Background(), deps, "other", "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.accounts) != 1 {
		t.Errorf("seed must be idempotent, got %d accounts", len(store.accounts))
	}
}

func TestQueryListUsers_StripsHashes(t *testing.T) {
	store := newStubAccounts(
		account.Account{ID: "u1", Username: "ana", Role: account.RoleAdmin, PasswordHash: "$2a$12$x"},
	)

	users, err := QueryListUsers(context.Background(), ListUsersDeps{Accounts: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].PasswordHash != "" {
		t.Error("listing must not expose password hashes")
	}
}
