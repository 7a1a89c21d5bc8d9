package credentials

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// MemoryStore is an in-process Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu       sync.Mutex
	accounts []Account
	exists   bool
}

// NewMemoryStore returns an uninitialised store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.accounts), nil
}

func (m *MemoryStore) Update(ctx context.Context, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(clone(m.accounts))
	if err != nil {
		return err
	}
	if err := validate(next); err != nil {
		return err
	}
	m.accounts = clone(next)
	m.exists = true
	return nil
}

func (m *MemoryStore) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists
}

func (m *MemoryStore) Init(ctx context.Context, accounts []Account) error {
	if err := validate(accounts); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exists {
		return errs.New(errs.AlreadyExists, "Credential store already exists")
	}
	m.accounts = clone(accounts)
	m.exists = true
	return nil
}
