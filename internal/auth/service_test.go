package auth

import (
	"context"
	"testing"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/policy"
	"tradefolio/internal/store"
	"tradefolio/internal/store/memory"
	"tradefolio/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return NewService(memory.New(nil), "tradefolio-test", []byte("secret"), time.Hour, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Alice@Example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, types.RoleUser, u.Role)
	assert.NotEqual(t, "password1", u.PasswordHash)

	token, err := svc.Login(ctx, "ALICE@example.com", "password1")
	require.NoError(t, err)
	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	_, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "password1")
	assert.Equal(t, "email", apperr.FieldOf(err))
	_, err = svc.Register(ctx, "a@b.c", "short")
	assert.Equal(t, "password", apperr.FieldOf(err))

	_, err = svc.Register(ctx, "a@b.c", "password1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "A@B.C", "password2")
	assert.True(t, apperr.IsConflict(err))
}

func TestParseToken_Rejects(t *testing.T) {
	svc := newTestService()
	other := NewService(memory.New(nil), "someone-else", []byte("secret"), time.Hour, nil)
	foreign, err := other.signToken(1)
	require.NoError(t, err)

	expired := newTestService()
	expired.ttl = -time.Minute
	stale, err := expired.signToken(1)
	require.NoError(t, err)

	for name, tok := range map[string]string{"garbage": "abc", "issuer": foreign, "expired": stale} {
		_, err := svc.ParseToken(tok)
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err), name)
	}
}

func TestActor_DeletedUserCannotAuthenticate(t *testing.T) {
	st := memory.New(nil)
	svc := NewService(st, "i", []byte("s"), time.Hour, nil)
	ctx := context.Background()
	u, err := svc.Register(ctx, "gone@example.com", "password1")
	require.NoError(t, err)

	a, err := svc.Actor(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.Actor{UserID: u.ID, Role: types.RoleUser}, a)

	require.NoError(t, st.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Users().MarkDeleted(ctx, u.ID, time.Now())
	}))
	_, err = svc.Actor(ctx, u.ID)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestListUsers_AdminOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, "user@example.com", "password1")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", string(hash)))
	require.NoError(t, svc.EnsureAdmin(ctx, "root@example.com", string(hash)), "seeding twice is a no-op")

	_, err = svc.ListUsers(ctx, policy.Actor{UserID: u.ID, Role: types.RoleUser}, store.Filter{})
	assert.True(t, apperr.IsForbidden(err))

	token, err := svc.Login(ctx, "root@example.com", "adminpass")
	require.NoError(t, err)
	adminID, err := svc.ParseToken(token)
	require.NoError(t, err)
	admin, err := svc.Actor(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	users, err := svc.ListUsers(ctx, admin, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
