package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/GriffinCanCode/filemanager/internal/domain/credentials"
	"github.com/GriffinCanCode/filemanager/internal/domain/session"
	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

func newTestGuard(t *testing.T, opts ...Option) (*Guard, *credentials.MemoryStore, *session.MemoryStore) {
	t.Helper()
	accounts := credentials.NewMemoryStore()
	sessions := session.NewMemoryStore(time.Hour)

	opts = append([]Option{WithCost(bcrypt.MinCost)}, opts...)
	g, err := NewGuard(accounts, sessions, opts...)
	require.NoError(t, err)
	return g, accounts, sessions
}

func bootstrapped(t *testing.T) *Guard {
	t.Helper()
	g, _, _ := newTestGuard(t)
	created, err := g.Bootstrap(context.Background())
	require.NoError(t, err)
	require.True(t, created)
	return g
}

func TestNewGuardRejectsBadCost(t *testing.T) {
	_, err := NewGuard(credentials.NewMemoryStore(), session.NewMemoryStore(time.Hour), WithCost(99))
	assert.Error(t, err)
}

func TestBootstrap(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g, accounts, _ := newTestGuard(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	created, err := g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, logs.FilterMessageSnippet("change immediately").Len())

	list, err := accounts.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, DefaultAccount, list[0].Name)
	assert.NotEqual(t, DefaultSecret, list[0].SecretHash)

	created, err = g.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, created, "second bootstrap must not reseed")
}

func TestVerifyLogin(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	assert.True(t, g.VerifyLogin(ctx, "admin", "admin"))
	assert.False(t, g.VerifyLogin(ctx, "admin", "wrong"))
	assert.False(t, g.VerifyLogin(ctx, "ghost", "admin"))
	assert.False(t, g.VerifyLogin(ctx, "", ""))
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	_, wrongSecret := g.Login(ctx, "admin", "wrong", "")
	_, unknownName := g.Login(ctx, "ghost", "admin", "")

	require.Error(t, wrongSecret)
	require.Error(t, unknownName)
	assert.Equal(t, errs.KindOf(wrongSecret), errs.KindOf(unknownName))
	assert.Equal(t, wrongSecret.Error(), unknownName.Error())
	assert.Equal(t, errs.InvalidCredentials, errs.KindOf(wrongSecret))
}

func TestLoginIssuesFreshSession(t *testing.T) {
	g, _, sessions := newTestGuard(t)
	ctx := context.Background()
	_, err := g.Bootstrap(ctx)
	require.NoError(t, err)

	planted, err := sessions.Create(ctx, "admin")
	require.NoError(t, err)

	sess, err := g.Login(ctx, "admin", "admin", planted.Token)
	require.NoError(t, err)
	assert.NotEqual(t, planted.Token, sess.Token)
	assert.Equal(t, "admin", sess.AccountName)

	_, ok := g.Authenticated(ctx, planted.Token)
	assert.False(t, ok, "presented session must be dropped")

	got, ok := g.Authenticated(ctx, sess.Token)
	require.True(t, ok)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, 1, g.ActiveSessions())
}

func TestLogout(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	sess, err := g.Login(ctx, "admin", "admin", "")
	require.NoError(t, err)

	g.Logout(ctx, sess.Token)
	_, ok := g.Authenticated(ctx, sess.Token)
	assert.False(t, ok)

	g.Logout(ctx, "")
	g.Logout(ctx, "unknown")
}

func TestChangePassword(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	require.NoError(t, g.ChangePassword(ctx, "admin", "admin", "newpass1"))
	assert.True(t, g.VerifyLogin(ctx, "admin", "newpass1"))
	assert.False(t, g.VerifyLogin(ctx, "admin", "admin"))
}

func TestChangePasswordWrongCurrentKeepsOldSecret(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	err := g.ChangePassword(ctx, "admin", "wrong", "newpass1")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidCredentials, errs.KindOf(err))
	assert.Equal(t, "Current password is incorrect", errs.Message(err))

	assert.True(t, g.VerifyLogin(ctx, "admin", "admin"))
	assert.False(t, g.VerifyLogin(ctx, "admin", "newpass1"))
}

func TestChangePasswordValidation(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	tests := []struct {
		name string
		user string
		next string
		kind errs.Kind
	}{
		{"too short", "admin", "short", errs.ValidationFailure},
		{"too long", "admin", string(make([]byte, 73)), errs.ValidationFailure},
		{"unknown account", "ghost", "newpass1", errs.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ChangePassword(ctx, tt.user, "admin", tt.next)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
	assert.True(t, g.VerifyLogin(ctx, "admin", "admin"))
}

func TestResetPassword(t *testing.T) {
	g := bootstrapped(t)
	ctx := context.Background()

	require.NoError(t, g.ResetPassword(ctx, "admin", "rotated1"))
	assert.True(t, g.VerifyLogin(ctx, "admin", "rotated1"))

	err := g.ResetPassword(ctx, "ghost", "rotated1")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}
