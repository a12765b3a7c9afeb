package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/token"
	"github.com/iliyamo/placenote/internal/utils"
)

func newAuth(t *testing.T) (*AuthService, *memUsers, *clock, *token.Service) {
	t.Helper()
	c := &clock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	users := newMemUsers()
	tokens := newTokens(t, c)
	return NewAuthService(users, tokens, utils.NewPasswordHasher(bcrypt.MinCost), nil), users, c, tokens
}

func TestRegister_IssuesPairForNewUser(t *testing.T) {
	svc, users, _, tokens := newAuth(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, " A@X.com ", "pw123456", "alice")

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.User.Email)
	assert.Equal(t, "alice", sess.User.Nickname)
	assert.NotEqual(t, "pw123456", sess.User.PasswordHash)
	assert.NotEmpty(t, sess.User.ID)

	sub, err := tokens.Verify(sess.Tokens.Access.Token, token.Access)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, sub)

	stored, err := users.GetByID(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, stored.ID)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _, _, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw123456", "alice")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "A@x.com", "another1", "alice2")

	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, users, _, _ := newAuth(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password, nickname string
		want                            error
	}{
		{"no email", " ", "pw123456", "alice", apperr.ErrMissingField},
		{"no password", "a@x.com", "", "alice", apperr.ErrMissingField},
		{"no nickname", "a@x.com", "pw123456", "  ", apperr.ErrMissingField},
		{"short password", "a@x.com", "pw123", "alice", apperr.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, tt.nickname)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, users.byID)
}

func TestRegister_StoreFailure(t *testing.T) {
	svc, users, _, _ := newAuth(t)
	users.failErr = apperr.Store("insert user", errors.New("connection refused"))

	_, err := svc.Register(context.Background(), "a@x.com", "pw123456", "alice")

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

func TestLogin(t *testing.T) {
	svc, _, _, tokens := newAuth(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "a@x.com", "pw123456", "alice")
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "A@X.COM", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sess.User.ID)
	sub, err := tokens.Verify(sess.Tokens.Refresh.Token, token.Refresh)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sub)

	_, wrongPassword := svc.Login(ctx, "a@x.com", "wrong-password")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "pw123456")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRefresh(t *testing.T) {
	svc, users, c, _ := newAuth(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "a@x.com", "pw123456", "alice")
	require.NoError(t, err)

	c.t = c.t.Add(time.Hour)
	sess, err := svc.Refresh(ctx, reg.Tokens.Refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sess.User.ID)
	assert.True(t, sess.Tokens.Access.ExpiresAt.After(reg.Tokens.Access.ExpiresAt))

	t.Run("access token rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, reg.Tokens.Access.Token)
		assert.ErrorIs(t, err, token.ErrKindMismatch)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, token.ErrMalformed)
	})

	t.Run("user deleted", func(t *testing.T) {
		delete(users.byID, reg.User.ID)
		defer func() { users.byID[reg.User.ID] = reg.User }()
		_, err := svc.Refresh(ctx, reg.Tokens.Refresh.Token)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		c.t = reg.Tokens.Refresh.ExpiresAt.Add(time.Second)
		_, err := svc.Refresh(ctx, reg.Tokens.Refresh.Token)
		var terr *token.Error
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, token.Expired, terr.Kind)
	})
}

func TestCurrentUserAndProfile(t *testing.T) {
	svc, _, _, _ := newAuth(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, "a@x.com", "pw123456", "alice")
	require.NoError(t, err)

	me, err := svc.CurrentUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", me.Email)

	_, err = svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	p, err := svc.Profile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Nickname)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
