package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofrs/flock"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

const (
	filePerm       = 0o600
	lockRetryDelay = 25 * time.Millisecond
	lockTimeout    = 5 * time.Second
)

// FileStore keeps accounts in a JSON file guarded by an advisory lock.
type FileStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is not touched until
// first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the credential file location.
func (s *FileStore) Path() string { return s.path }

// LockPath returns the advisory lock file location.
func (s *FileStore) LockPath() string { return s.lock.Path() }

// Exists reports whether the credential file is present.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and validates every account.
func (s *FileStore) Load(ctx context.Context) ([]Account, error) {
	return s.read()
}

// Update performs a locked read-modify-write of the whole file.
func (s *FileStore) Update(ctx context.Context, fn UpdateFunc) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	next, err := fn(clone(current))
	if err != nil {
		return err
	}
	if err := validate(next); err != nil {
		return err
	}
	return s.write(next)
}

// Init creates the file with accounts. It fails with AlreadyExists when the
// file is present.
func (s *FileStore) Init(ctx context.Context, accounts []Account) error {
	if err := validate(accounts); err != nil {
		return err
	}

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errs.Wrap(errs.IOFailure, "Failed to create credential directory", err)
	}

	// Exclusive create claims the name; the content is then swapped in atomically.
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errs.New(errs.AlreadyExists, "Credential store already exists")
		}
		return errs.Wrap(errs.IOFailure, "Failed to create credential store", err)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.IOFailure, "Failed to create credential store", err)
	}

	if err := s.write(accounts); err != nil {
		_ = os.Remove(s.path)
		return err
	}
	return nil
}

func (s *FileStore) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.mu.Unlock()
		return nil, errs.Wrap(errs.IOFailure, "Failed to create credential directory", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		s.mu.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, errs.Wrap(errs.IOFailure, "Credential store is busy", err)
	}

	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *FileStore) read() ([]Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.IOFailure, "Failed to read credential store", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var accounts []Account
	if err := sonic.Unmarshal(data, &accounts); err != nil {
		return nil, errs.Wrap(errs.IOFailure, "Credential store is malformed", err)
	}
	if err := validate(accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *FileStore) write(accounts []Account) error {
	if accounts == nil {
		accounts = []Account{}
	}
	data, err := sonic.MarshalIndent(accounts, "", "    ")
	if err != nil {
		return errs.Wrap(errs.IOFailure, "Failed to encode credential store", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.IOFailure, "Failed to write credential store", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errs.Wrap(errs.IOFailure, "Failed to write credential store", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errs.Wrap(errs.IOFailure, "Failed to write credential store", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errs.Wrap(errs.IOFailure, "Failed to write credential store", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return errs.Wrap(errs.IOFailure, "Failed to write credential store", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return errs.Wrap(errs.IOFailure, fmt.Sprintf("Failed to replace %s", filepath.Base(s.path)), err)
	}
	return nil
}
