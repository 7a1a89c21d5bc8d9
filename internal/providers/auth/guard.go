package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GriffinCanCode/filemanager/internal/domain/credentials"
	"github.com/GriffinCanCode/filemanager/internal/domain/session"
	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
	"github.com/GriffinCanCode/filemanager/internal/shared/utils"
)

const (
	// DefaultAccount and DefaultSecret seed an empty credential store.
	DefaultAccount = "admin"
	DefaultSecret  = "admin"
)

var passwordRule = fmt.Sprintf("New password must be at least %d characters and at most %d bytes",
	utils.MinPasswordLength, utils.MaxPasswordBytes)

// Guard authenticates operators and manages their sessions.
type Guard struct {
	accounts  credentials.Store
	sessions  session.Store
	cost      int
	log       *zap.Logger
	dummyHash []byte
}

// Option configures a Guard.
type Option func(*Guard)

// WithCost sets the bcrypt cost used for new hashes.
func WithCost(cost int) Option {
	return func(g *Guard) {
		g.cost = cost
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Guard) {
		g.log = log
	}
}

// NewGuard wires a guard to its stores.
func NewGuard(accounts credentials.Store, sessions session.Store, opts ...Option) (*Guard, error) {
	g := &Guard{
		accounts: accounts,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.cost < bcrypt.MinCost || g.cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", g.cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-account"), g.cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	g.dummyHash = dummy
	return g, nil
}

// Bootstrap seeds the default account when no credential store exists.
func (g *Guard) Bootstrap(ctx context.Context) (bool, error) {
	if g.accounts.Exists() {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultSecret), g.cost)
	if err != nil {
		return false, errs.Wrap(errs.IOFailure, "Failed to hash default secret", err)
	}
	acc, err := credentials.NewAccount(DefaultAccount, string(hash))
	if err != nil {
		return false, errs.Wrap(errs.ValidationFailure, "Invalid default account", err)
	}

	if err := g.accounts.Init(ctx, []credentials.Account{acc}); err != nil {
		if errs.Is(err, errs.AlreadyExists) {
			return false, nil
		}
		return false, err
	}

	g.log.Warn("Created default account with placeholder secret, change immediately",
		zap.String("account", DefaultAccount))
	return true, nil
}

// VerifyLogin reports whether secret matches the stored hash for name.
func (g *Guard) VerifyLogin(ctx context.Context, name, secret string) bool {
	accounts, err := g.accounts.Load(ctx)
	if err != nil {
		g.log.Error("Failed to load credentials", zap.Error(err))
	}

	hash := g.dummyHash
	known := false
	if i, ok := credentials.Find(accounts, name); ok {
		hash = []byte(accounts[i].SecretHash)
		known = true
	}

	match := bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
	return known && match
}

// Login verifies credentials and issues a fresh session. Any session the
// client presented is destroyed first so a token planted before login is
// never promoted.
func (g *Guard) Login(ctx context.Context, name, secret, presentedToken string) (*session.Session, error) {
	if !g.VerifyLogin(ctx, name, secret) {
		g.log.Info("Login rejected", zap.String("account", name))
		return nil, errs.New(errs.InvalidCredentials, "Invalid credentials")
	}

	if presentedToken != "" {
		g.sessions.Delete(ctx, presentedToken)
	}

	sess, err := g.sessions.Create(ctx, name)
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, "Failed to create session", err)
	}

	g.log.Info("Login succeeded",
		zap.String("account", name),
		zap.String("session_id", sess.ID.String()))
	return sess, nil
}

// Logout destroys the session behind token.
func (g *Guard) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if sess, ok := g.sessions.Get(ctx, token); ok {
		g.log.Info("Logout", zap.String("session_id", sess.ID.String()))
	}
	g.sessions.Delete(ctx, token)
}

// Authenticated returns the live authenticated session behind token.
func (g *Guard) Authenticated(ctx context.Context, token string) (*session.Session, bool) {
	sess, ok := g.sessions.Get(ctx, token)
	if !ok || !sess.Authenticated {
		return nil, false
	}
	return sess, true
}

// ActiveSessions returns the number of live sessions.
func (g *Guard) ActiveSessions() int {
	return g.sessions.Count()
}

// ChangePassword replaces the secret of name after re-verifying current.
func (g *Guard) ChangePassword(ctx context.Context, name, current, next string) error {
	if err := utils.ValidatePassword(next); err != nil {
		return errs.Wrap(errs.ValidationFailure, passwordRule, err)
	}

	err := g.accounts.Update(ctx, func(accounts []credentials.Account) ([]credentials.Account, error) {
		i, ok := credentials.Find(accounts, name)
		if !ok {
			return nil, errs.New(errs.NotFound, "User not found")
		}
		if bcrypt.CompareHashAndPassword([]byte(accounts[i].SecretHash), []byte(current)) != nil {
			return nil, errs.New(errs.InvalidCredentials, "Current password is incorrect")
		}
		return g.rehash(accounts, i, next)
	})
	if err != nil {
		return err
	}

	g.log.Info("Password changed", zap.String("account", name))
	return nil
}

// ResetPassword replaces the secret of name without the current one. It is an
// operator tool and is not reachable over HTTP.
func (g *Guard) ResetPassword(ctx context.Context, name, next string) error {
	if err := utils.ValidatePassword(next); err != nil {
		return errs.Wrap(errs.ValidationFailure, passwordRule, err)
	}

	return g.accounts.Update(ctx, func(accounts []credentials.Account) ([]credentials.Account, error) {
		i, ok := credentials.Find(accounts, name)
		if !ok {
			return nil, errs.New(errs.NotFound, "User not found")
		}
		return g.rehash(accounts, i, next)
	})
}

func (g *Guard) rehash(accounts []credentials.Account, i int, secret string) ([]credentials.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, "Failed to hash password", err)
	}
	accounts[i].SecretHash = string(hash)
	return accounts, nil
}
