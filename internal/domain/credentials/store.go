package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// Account is one operator login.
type Account struct {
	Name       string `json:"username"`
	SecretHash string `json:"password"`
}

// NewAccount validates and builds an account record.
func NewAccount(name, secretHash string) (Account, error) {
	if name == "" {
		return Account{}, errors.New("account name is empty")
	}
	if secretHash == "" {
		return Account{}, fmt.Errorf("account %s has no secret hash", name)
	}
	return Account{Name: name, SecretHash: secretHash}, nil
}

// UpdateFunc receives a copy of the current accounts and returns the full
// replacement list. Returning an error aborts the rewrite.
type UpdateFunc func(accounts []Account) ([]Account, error)

// Store is the persistence contract used by the auth guard.
type Store interface {
	// Load returns all accounts in file order. A missing store yields none.
	Load(ctx context.Context) ([]Account, error)
	// Update runs fn under the store lock and persists its result.
	Update(ctx context.Context, fn UpdateFunc) error
	// Exists reports whether the store has been initialised.
	Exists() bool
	// Init creates the store with accounts, failing if it already exists.
	Init(ctx context.Context, accounts []Account) error
}

// Find returns the index of the account called name.
func Find(accounts []Account, name string) (int, bool) {
	for i, acc := range accounts {
		if acc.Name == name {
			return i, true
		}
	}
	return -1, false
}

func validate(accounts []Account) error {
	seen := make(map[string]struct{}, len(accounts))
	for _, acc := range accounts {
		if _, err := NewAccount(acc.Name, acc.SecretHash); err != nil {
			return errs.Wrap(errs.ValidationFailure, "Invalid account record", err)
		}
		if _, dup := seen[acc.Name]; dup {
			return errs.New(errs.ValidationFailure, fmt.Sprintf("Duplicate account %q", acc.Name))
		}
		seen[acc.Name] = struct{}{}
	}
	return nil
}

func clone(accounts []Account) []Account {
	out := make([]Account, len(accounts))
	copy(out, accounts)
	return out
}
