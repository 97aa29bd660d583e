package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-web/internal/backend"
)

func TestLoginOpensSessionCappedByTokenExpiry(t *testing.T) {
	b := &fakeBackend{result: backend.AuthResult{
		Token: jwtWithExp("7", baseTime.Add(20*time.Minute)),
		User:  backend.User{ID: "7", Name: "Nadia", Email: "nadia@example.org", Role: "admin"},
	}}
	svc, _, _ := newTestService(b)

	sess, err := svc.Login(context.Background(), LoginInput{Email: " nadia@example.org ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, baseTime.Add(20*time.Minute), sess.ExpiresAt)

	ident, err := svc.Resolve(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", ident.UserID)
	assert.Equal(t, "admin", ident.Role)
	assert.Equal(t, b.result.Token, ident.Token)
}

func TestLoginFillsUserFromClaims(t *testing.T) {
	b := &fakeBackend{result: backend.AuthResult{AccessToken: jwtWithExp("99", baseTime.Add(48*time.Hour))}}
	svc, _, _ := newTestService(b)

	sess, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, backend.ID("99"), sess.User.ID)
	assert.Equal(t, "member", sess.User.Role)
	assert.Equal(t, baseTime.Add(time.Hour), sess.ExpiresAt)
}

func TestLoginOpaqueTokenUsesTTL(t *testing.T) {
	b := &fakeBackend{result: backend.AuthResult{Token: "opaque", User: backend.User{ID: "3"}}}
	svc, _, _ := newTestService(b)

	sess, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(time.Hour), sess.ExpiresAt)
}

func TestLoginFailures(t *testing.T) {
	t.Run("invalid form skips backend", func(t *testing.T) {
		b := &fakeBackend{}
		svc, _, _ := newTestService(b)
		_, err := svc.Login(context.Background(), LoginInput{Email: "not-an-email"})
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Len(t, inputErr.Fields, 2)
		assert.Zero(t, b.callCount())
	})
	t.Run("backend rejects credentials", func(t *testing.T) {
		b := &fakeBackend{err: &backend.APIError{Status: 401, Message: "bad credentials"}}
		svc, repo, _ := newTestService(b)
		_, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
		assert.ErrorIs(t, err, backend.ErrUnauthorized)
		n, _ := repo.DeleteExpired(context.Background(), baseTime.Add(1000*time.Hour))
		assert.Zero(t, n)
	})
	t.Run("missing token", func(t *testing.T) {
		svc, _, _ := newTestService(&fakeBackend{result: backend.AuthResult{User: backend.User{ID: "1"}}})
		_, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
		assert.ErrorIs(t, err, ErrNoToken)
	})
	t.Run("already expired token", func(t *testing.T) {
		svc, _, _ := newTestService(&fakeBackend{result: backend.AuthResult{Token: jwtWithExp("1", baseTime.Add(-time.Minute))}})
		_, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestHydrateExpiresSession(t *testing.T) {
	b := &fakeBackend{result: backend.AuthResult{Token: "opaque", User: backend.User{ID: "3"}}}
	svc, repo, now := newTestService(b)

	sess, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
	require.NoError(t, err)

	*now = baseTime.Add(time.Hour)
	_, err = svc.Hydrate(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = repo.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogoutClearsSession(t *testing.T) {
	b := &fakeBackend{result: backend.AuthResult{Token: "opaque", User: backend.User{ID: "3"}}}
	svc, _, _ := newTestService(b)

	sess, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), sess.ID))

	_, err = svc.Resolve(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterChecksPasswordConfirmationFirst(t *testing.T) {
	b := &fakeBackend{}
	svc, _, _ := newTestService(b)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:            "Rafi",
		Email:           "rafi@example.org",
		Password:        "longenough",
		PasswordConfirm: "different1",
	})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "passwordConfirm", inputErr.Fields[0].Field)
	assert.Zero(t, b.callCount())
}

func TestRegisterWithoutTokenReturnsNoSession(t *testing.T) {
	b := &fakeBackend{}
	svc, _, _ := newTestService(b)

	sess, err := svc.Register(context.Background(), RegisterInput{
		Name:            " Rafi ",
		Email:           "rafi@example.org",
		Phone:           "01700000000",
		Password:        "longenough",
		PasswordConfirm: "longenough",
	})
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, "Rafi", b.lastReg.Name)
	assert.Equal(t, "01700000000", b.lastReg.Phone)
}

func TestResetPassword(t *testing.T) {
	b := &fakeBackend{}
	svc, _, _ := newTestService(b)

	err := svc.ResetPassword(context.Background(), ResetInput{Token: "r1", Password: "short", PasswordConfirm: "short"})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "password", inputErr.Fields[0].Field)

	require.NoError(t, svc.ResetPassword(context.Background(), ResetInput{Token: "r1", Password: "longenough", PasswordConfirm: "longenough"}))
	assert.Equal(t, "r1", b.lastReset)
}

func TestForgotPasswordRequiresEmail(t *testing.T) {
	b := &fakeBackend{}
	svc, _, _ := newTestService(b)

	err := svc.ForgotPassword(context.Background(), "  ")
	var inputErr *InputError
	assert.True(t, errors.As(err, &inputErr))
	require.NoError(t, svc.ForgotPassword(context.Background(), "m@example.org"))
	assert.Equal(t, 1, b.callCount())
}

func TestPurgeExpired(t *testing.T) {
	b := &fakeBackend{result: backend.AuthResult{Token: "opaque", User: backend.User{ID: "3"}}}
	svc, _, now := newTestService(b)

	_, err := svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
	require.NoError(t, err)
	*now = baseTime.Add(30 * time.Minute)
	_, err = svc.Login(context.Background(), LoginInput{Email: "m@example.org", Password: "pw"})
	require.NoError(t, err)

	*now = baseTime.Add(time.Hour)
	n, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
